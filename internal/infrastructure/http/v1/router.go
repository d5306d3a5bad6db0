// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"ferrex/internal/domain/auth"
	"ferrex/internal/domain/fiscal"
	"ferrex/internal/infrastructure/http/v1/handlers"
	"ferrex/internal/infrastructure/http/v1/middleware"
	"ferrex/internal/infrastructure/storage/postgres"
	"ferrex/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// FiscalService issues and tracks electronic documents
	FiscalService *fiscal.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(cfg.AuthService)
		v1.POST("/auth/login", authHandler.Login)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		fiscalHandler := handlers.NewFiscalHandler(cfg.FiscalService)
		docs := protected.Group("/fiscal/documents")
		{
			docs.POST("", fiscalHandler.Issue)
			docs.GET("", fiscalHandler.List)
			docs.GET("/:id", fiscalHandler.Get)
			docs.GET("/:id/submissions", fiscalHandler.Submissions)
		}
	}

	return router
}
