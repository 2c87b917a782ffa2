package api

import (
	"net/http"

	"dropmart-be/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string

	// MergeGuestCart reconciles a guest cart into the signed-in user's cart.
	MergeGuestCart middleware.MergeFunc
}

// NewRouter wires middleware and all handlers into the gin engine.
func NewRouter(
	cfg RouterConfig,
	cartHandler *CartHandler,
	checkoutHandler *CheckoutHandler,
	webhookHandler *WebhookHandler,
	orderHandler *OrderHandler,
	fulfillmentHandler *FulfillmentHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging())
	r.Use(middleware.Metrics())

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowCredentials = !corsCfg.AllowAllOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-ID")
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(middleware.Identity(cfg.JWTSecret, cfg.MergeGuestCart))
	v1.Use(middleware.RateLimit())

	cartGroup := v1.Group("/cart")
	{
		cartGroup.GET("", cartHandler.GetSummary)
		cartGroup.DELETE("", cartHandler.Clear)
		cartGroup.POST("/items", cartHandler.AddItem)
		cartGroup.PATCH("/items/:variantID", cartHandler.UpdateQuantity)
		cartGroup.DELETE("/items/:variantID", cartHandler.RemoveItem)
	}

	checkoutGroup := v1.Group("/checkout")
	{
		checkoutGroup.POST("/sessions", checkoutHandler.CreateSession)
		checkoutGroup.GET("/sessions/:id", checkoutHandler.GetSession)
		checkoutGroup.POST("/sessions/:id/cancel", checkoutHandler.CancelSession)
	}

	v1.POST("/payments/webhook", webhookHandler.HandlePaymentEvent)

	v1.GET("/orders/:id", orderHandler.GetOrder)

	fulfillmentGroup := v1.Group("/fulfillment")
	{
		fulfillmentGroup.GET("/summary", fulfillmentHandler.GetSummary)
		fulfillmentGroup.PATCH("/:id/status", fulfillmentHandler.UpdateStatus)
	}

	return r
}
