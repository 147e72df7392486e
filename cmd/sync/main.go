package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"woosync/config"
	pgStorage "woosync/internal/adapter/storage/postgres"
	"woosync/internal/adapter/woocommerce"
	"woosync/internal/core/domain"
	"woosync/internal/core/ports"
	"woosync/internal/service"
	"woosync/pkg/logger"

	"github.com/rs/zerolog"
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
		Dur("interval", cfg.Sync.Interval).
		Int("workers", cfg.Sync.Workers).
		Msg("Starting WooSync worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize repositories and services
	connRepo := pgStorage.NewConnectionRepo(pool)
	productRepo := pgStorage.NewProductRepo(pool)

	catalog := woocommerce.NewClient(log)
	uploader := woocommerce.NewMediaClient(log)
	fetcher := woocommerce.NewFetcher(cfg.Image.MaxBytes)

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

	interval := cfg.Sync.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	workers := cfg.Sync.Workers
	if workers <= 0 {
		workers = 4
	}

	// First pass immediately, then on the ticker.
	runPass(ctx, connRepo, syncSvc, workers, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Worker exited")
			return
		case <-ticker.C:
			runPass(ctx, connRepo, syncSvc, workers, log)
		}
	}
}

// runPass syncs every active connection once, fanning out over a bounded
// worker pool. One connection's failure never stops the others.
func runPass(ctx context.Context, connRepo ports.ConnectionRepository, syncSvc ports.SyncService, workers int, log zerolog.Logger) {
	conns, err := connRepo.List(ctx, true)
	if err != nil {
		log.Error().Err(err).Msg("failed to list active connections")
		return
	}
	if len(conns) == 0 {
		return
	}

	jobs := make(chan domain.Connection)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for conn := range jobs {
				syncConnection(ctx, syncSvc, &conn, log)
			}
		}()
	}

enqueue:
	for _, conn := range conns {
		select {
		case <-ctx.Done():
			break enqueue
		case jobs <- conn:
		}
	}
	close(jobs)
	wg.Wait()
}

func syncConnection(ctx context.Context, syncSvc ports.SyncService, conn *domain.Connection, log zerolog.Logger) {
	clog := log.With().Str("connection", conn.Name).Logger()

	if conn.SyncDirection.CanPull() {
		report, err := syncSvc.PullConnection(ctx, conn)
		if err != nil {
			clog.Error().Err(err).Msg("pull pass failed")
		} else {
			logReport(clog, "pull pass finished", report)
			if report.Halted {
				// Credentials are rejected; pushing would fail the same way.
				return
			}
		}
	}

	if conn.SyncDirection.CanPush() {
		report, err := syncSvc.PushPending(ctx, conn)
		if err != nil {
			clog.Error().Err(err).Msg("push pass failed")
		} else {
			logReport(clog, "push pass finished", report)
		}
	}
}

func logReport(log zerolog.Logger, msg string, report *ports.SyncReport) {
	log.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Bool("halted", report.Halted).
		Msg(msg)
}
