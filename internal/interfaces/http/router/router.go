package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Config holds the router wiring settings
type Config struct {
	Logger      *zap.Logger
	WebhookPath string
	MaxBodySize int64
}

// New builds the gin engine with the full middleware chain and route table
func New(cfg Config, webhook *handler.WebhookHandler, admin *handler.AdminHandler) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	webhookPath := cfg.WebhookPath
	if webhookPath == "" {
		webhookPath = "/webhook/whatsapp"
	}
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(log),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.BodyLimit(maxBody),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST(webhookPath, webhook.HandleInbound)

	api := engine.Group("/api/v1")
	{
		api.GET("/status", admin.Status)
		api.POST("/sync", admin.TriggerSync)
		api.GET("/customers", admin.ListCustomers)
		api.GET("/orders", admin.ListOrders)
		api.GET("/orders/:id", admin.GetOrder)
		api.PATCH("/orders/:id/status", admin.UpdateOrderStatus)
	}

	return engine
}
