package handler

import (
	"woosync/internal/adapter/http/middleware"
	"woosync/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// maxInboundBody bounds webhook and API request bodies. Remote stores post
// full order payloads, which stay far below this.
const maxInboundBody = 1 << 20 // 1 MB

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ConnectionSvc  ports.ConnectionService
	SyncSvc        ports.SyncService
	IngestSvc      ports.IngestService
	ProductRepo    ports.ProductRepository
	WebhookRepo    ports.WebhookRepository
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	// A non-POST hit on the webhook path must answer 405 with no side
	// effects, not fall through to 404.
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxInboundBody))

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Inbound deliveries live outside /api/v1: the token path segment is
	// the full URL remote stores are configured with.
	webhookHandler := NewWebhookHandler(deps.IngestSvc)
	r.POST("/webhook/:token", webhookHandler.Receive)

	// API v1 routes
	v1 := r.Group("/api/v1")

	connHandler := NewConnectionHandler(deps.ConnectionSvc, deps.SyncSvc, deps.WebhookRepo)
	productHandler := NewProductHandler(deps.ProductRepo, deps.ConnectionSvc, deps.SyncSvc)

	connections := v1.Group("/connections")
	{
		connections.POST("", connHandler.Create)
		connections.GET("", connHandler.List)
		connections.GET("/:id", connHandler.Get)
		connections.PUT("/:id", connHandler.Update)
		connections.POST("/:id/test", connHandler.Test)
		connections.POST("/:id/sync/pull", connHandler.Pull)
		connections.POST("/:id/sync/push", connHandler.Push)
		connections.POST("/:id/endpoints", connHandler.CreateEndpoint)
		connections.GET("/:id/endpoints", connHandler.ListEndpoints)
		connections.GET("/:id/products", productHandler.ListByConnection)
	}

	endpoints := v1.Group("/endpoints")
	{
		endpoints.GET("/:id/logs", connHandler.ListLogs)
	}

	products := v1.Group("/products")
	{
		products.GET("/:id", productHandler.Get)
		products.DELETE("/:id", productHandler.Delete)
	}

	return r
}
