package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(h *HTTPHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("storefront"))
	router.Use(MetricsMiddleware())

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/shipping/rates", h.ListRates)
		api.GET("/shipping/methods/:id/cost", h.CalculateCost)

		api.POST("/carts", h.OpenCart)
		api.GET("/carts/:id", h.GetCart)
		api.POST("/carts/:id/items", h.AddItem)
		api.PATCH("/carts/:id/items/:item_id", h.UpdateItem)
		api.DELETE("/carts/:id/items/:item_id", h.RemoveItem)
		api.DELETE("/carts/:id/items", h.ClearCart)
		api.PUT("/carts/:id/discount", h.ApplyDiscount)
		api.DELETE("/carts/:id/discount", h.RemoveDiscount)

		api.GET("/discounts", h.ListDiscounts)

		api.POST("/checkout", h.Checkout)
		api.GET("/orders", h.ListOrders)
		api.GET("/orders/:id", h.GetOrder)
		api.POST("/orders/:id/cancel", h.CancelOrder)

		api.GET("/addresses", h.ListAddresses)
		api.POST("/addresses", h.AddAddress)
		api.PUT("/addresses/:id/default", h.SetDefaultAddress)
		api.DELETE("/addresses/:id", h.DeleteAddress)
	}

	admin := router.Group("/api/v1/admin")
	{
		admin.POST("/shipping/zones", h.CreateZone)
		admin.POST("/shipping/methods", h.CreateMethod)
		admin.POST("/shipping/rates", h.CreateRate)
		admin.POST("/discounts", h.CreateDiscount)
		admin.POST("/orders/:id/status", h.TransitionOrder)
	}
	return router
}
