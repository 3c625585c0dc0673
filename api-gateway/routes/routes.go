package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hanktran/aws-microservices/api-gateway/proxy"
)

// Upstreams are the base URLs of the backing services.
type Upstreams struct {
	Basket string
	Order  string
}

// RegisterAllRoutes mounts /basket and /order, with and without a sub-path.
func RegisterAllRoutes(r *gin.Engine, f *proxy.Forwarder, up Upstreams, logger *zap.Logger) {
	basket := f.To(up.Basket + "/basket")
	r.Any("/basket", basket)
	r.Any("/basket/*any", basket)

	order := f.To(up.Order + "/order")
	r.GET("/order", order)
	r.GET("/order/*any", order)

	logger.Info("Gateway routes registered",
		zap.String("basket", up.Basket),
		zap.String("order", up.Order),
	)
}
