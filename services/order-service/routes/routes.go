package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hanktran/aws-microservices/services/order-service/controllers"
)

// RegisterOrderRoutes sets up the read-only order API. Orders are only created from
// checkout events.
func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	order := r.Group("/order")
	order.GET("", oc.GetAllOrders)
	order.GET("/:userName", oc.GetOrder)
}
