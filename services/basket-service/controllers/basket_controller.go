package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanktran/aws-microservices/services/basket-service/models"
	"github.com/hanktran/aws-microservices/services/basket-service/services"
	apperrors "github.com/hanktran/aws-microservices/services/common/errors"
)

const failMessage = "failed to perform operation."

// BasketController handles HTTP requests for baskets.
type BasketController struct {
	basketService services.BasketService
}

func NewBasketController(svc services.BasketService) *BasketController {
	return &BasketController{basketService: svc}
}

// GetBasket handles GET /basket/:userName
func (bc *BasketController) GetBasket(ctx *gin.Context) {
	basket, err := bc.basketService.GetBasket(ctx.Request.Context(), ctx.Param("userName"))
	if err != nil {
		apperrors.Fail(ctx, failMessage, err)
		return
	}
	apperrors.Respond(ctx, http.StatusOK, "successfully finished operation.", basket)
}

// GetAllBaskets handles GET /basket
func (bc *BasketController) GetAllBaskets(ctx *gin.Context) {
	baskets, err := bc.basketService.GetAllBaskets(ctx.Request.Context())
	if err != nil {
		apperrors.Fail(ctx, failMessage, err)
		return
	}
	apperrors.Respond(ctx, http.StatusOK, "successfully finished operation.", baskets)
}

// CreateBasket handles POST /basket
func (bc *BasketController) CreateBasket(ctx *gin.Context) {
	var basket models.Basket
	if err := ctx.ShouldBindJSON(&basket); err != nil {
		apperrors.Fail(ctx, failMessage, apperrors.New(apperrors.KindValidation, "invalid basket body", err))
		return
	}
	if err := bc.basketService.CreateBasket(ctx.Request.Context(), &basket); err != nil {
		apperrors.Fail(ctx, failMessage, err)
		return
	}
	apperrors.Respond(ctx, http.StatusOK, "successfully finished operation.", basket)
}

// DeleteBasket handles DELETE /basket/:userName
func (bc *BasketController) DeleteBasket(ctx *gin.Context) {
	userName := ctx.Param("userName")
	if err := bc.basketService.DeleteBasket(ctx.Request.Context(), userName); err != nil {
		apperrors.Fail(ctx, failMessage, err)
		return
	}
	apperrors.Respond(ctx, http.StatusOK, "successfully finished operation.", gin.H{"userName": userName})
}

// Checkout handles POST /basket/checkout
func (bc *BasketController) Checkout(ctx *gin.Context) {
	var req models.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.Fail(ctx, failMessage, apperrors.New(apperrors.KindValidation, "invalid checkout body", err))
		return
	}
	res, err := bc.basketService.Checkout(ctx.Request.Context(), req)
	if err != nil {
		apperrors.Fail(ctx, failMessage, err)
		return
	}
	apperrors.Respond(ctx, http.StatusOK, "successfully finished operation.", res)
}
