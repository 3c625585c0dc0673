package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hanktran/aws-microservices/services/basket-service/controllers"
)

// RegisterBasketRoutes sets up the basket API. checkoutGuards run in front of the
// checkout route only.
func RegisterBasketRoutes(r *gin.Engine, bc *controllers.BasketController, checkoutGuards ...gin.HandlerFunc) {
	basket := r.Group("/basket")

	basket.GET("", bc.GetAllBaskets)
	basket.POST("", bc.CreateBasket)
	basket.POST("/checkout", append(checkoutGuards, bc.Checkout)...)
	basket.GET("/:userName", bc.GetBasket)
	basket.DELETE("/:userName", bc.DeleteBasket)
}
