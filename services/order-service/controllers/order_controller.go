package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/hanktran/aws-microservices/services/common/errors"
	"github.com/hanktran/aws-microservices/services/order-service/services"
)

// OrderController serves the read side of ordering.
type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(svc services.OrderService) *OrderController {
	return &OrderController{orderService: svc}
}

// GetOrder handles GET /order/:userName?orderDate=
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	orders, err := oc.orderService.GetOrder(ctx.Request.Context(), ctx.Param("userName"), ctx.Query("orderDate"))
	if err != nil {
		apperrors.Fail(ctx, "failed to perform operation.", err)
		return
	}
	apperrors.Respond(ctx, http.StatusOK, "successfully finished operation.", orders)
}

// GetAllOrders handles GET /order
func (oc *OrderController) GetAllOrders(ctx *gin.Context) {
	orders, err := oc.orderService.GetAllOrders(ctx.Request.Context())
	if err != nil {
		apperrors.Fail(ctx, "failed to perform operation.", err)
		return
	}
	apperrors.Respond(ctx, http.StatusOK, "successfully finished operation.", orders)
}
