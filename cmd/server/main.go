// Package main is the entry point for the Ferrex API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ferrex/internal/domain/auth"
	"ferrex/internal/domain/fiscal"
	v1 "ferrex/internal/infrastructure/http/v1"
	"ferrex/internal/infrastructure/numerator"
	"ferrex/internal/infrastructure/storage/postgres"
	"ferrex/internal/infrastructure/storage/postgres/fiscal_repo"
	"ferrex/internal/infrastructure/sunat"
	"ferrex/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting ferrex server")

	// --- Database connection ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	blobs, err := postgres.NewBlobCodec()
	if err != nil {
		log.Fatalw("failed to initialize blob codec", "error", err)
	}

	// --- JWT Service ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Auth Service ---
	authService := auth.NewService([]auth.Credential{
		{
			User:         getEnv("API_USER", "admin"),
			PasswordHash: mustEnv("API_PASSWORD_HASH"),
			Name:         getEnv("API_USER_NAME", "Administrator"),
		},
	}, jwtService)

	// --- Provider profiles ---
	profiles := sunat.Profiles{
		Primary: sunat.Profile{
			BaseURL:  mustEnv("SUNAT_PRIMARY_URL"),
			Path:     getEnv("SUNAT_PRIMARY_PATH", "/api/v1/invoice/send"),
			Timeout:  getEnvDuration("SUNAT_PRIMARY_TIMEOUT", 30*time.Second),
			User:     mustEnv("SUNAT_PRIMARY_USER"),
			Password: mustEnv("SUNAT_PRIMARY_PASSWORD"),
		},
		Secondary: sunat.Profile{
			BaseURL: getEnv("SUNAT_SECONDARY_URL", ""),
			Path:    getEnv("SUNAT_SECONDARY_PATH", "/api/v1/documents"),
			Timeout: getEnvDuration("SUNAT_SECONDARY_TIMEOUT", 30*time.Second),
			Token:   getEnv("SUNAT_SECONDARY_TOKEN", ""),
		},
	}
	if !profiles.Secondary.Usable() {
		log.Warn("secondary provider not configured, failover disabled")
	}

	submitter := sunat.NewSubmitter(profiles, nil)

	// --- Fiscal Service ---
	numeratorService := numerator.New(pool)
	fiscalRepo := fiscal_repo.New(txManager, blobs)
	fiscalService := fiscal.NewService(fiscalRepo, submitter, numeratorService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:          pool,
		Logger:        log,
		JWTValidator:  jwtService,
		AuthService:   authService,
		FiscalService: fiscalService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
