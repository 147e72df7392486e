package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"woosync/config"
	httpHandler "woosync/internal/adapter/http/handler"
	pgStorage "woosync/internal/adapter/storage/postgres"
	redisStorage "woosync/internal/adapter/storage/redis"
	"woosync/internal/adapter/woocommerce"
	"woosync/internal/core/ports"
	"woosync/internal/service"
	"woosync/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting WooSync API")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	connRepo := pgStorage.NewConnectionRepo(pool)
	productRepo := pgStorage.NewProductRepo(pool)
	customerRepo := pgStorage.NewCustomerRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	webhookRepo := pgStorage.NewWebhookRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	orderCache := redisStorage.NewOrderCache(rdb)

	// Initialize remote store clients
	catalog := woocommerce.NewClient(log)
	uploader := woocommerce.NewMediaClient(log)
	fetcher := woocommerce.NewFetcher(cfg.Image.MaxBytes)

	// Initialize business services
	imageSvc := service.NewImageService(
		productRepo,
		catalog,
		uploader,
		fetcher,
		cfg.Image.MaxBytes,
		cfg.Image.MaxAttempts,
		cfg.Image.RetryBackoff,
		log,
	)
	syncSvc := service.NewSyncService(connRepo, productRepo, catalog, imageSvc, cfg.Sync.BatchSize, log)
	connSvc := service.NewConnectionService(connRepo, webhookRepo, catalog, log)
	mapper := service.NewOrderMapper(productRepo, customerRepo, log)
	ingestSvc := service.NewIngestService(webhookRepo, orderRepo, mapper, orderCache, transactor, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ConnectionSvc:  connSvc,
		SyncSvc:        syncSvc,
		IngestSvc:      ingestSvc,
		ProductRepo:    productRepo,
		WebhookRepo:    webhookRepo,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
