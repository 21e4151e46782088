package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"conti/internal/amqp"
	"conti/internal/config"
	applog "conti/internal/log"
	"conti/internal/storage"
	"conti/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting conti-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	totalsWorker := worker.NewTotalsWorker(repo)

	// Catch up on anything that changed while the worker was down.
	logger.Info("Performing startup totals sweep")
	if err := totalsWorker.RecomputeAll(ctx, cfg.TotalsBatchSize); err != nil {
		logger.Error("Startup totals sweep failed", "error", err)
		// Don't exit - the event stream keeps totals converging
	}

	go func() {
		if err := amqpClient.Consume(ctx, totalsWorker.HandleExpenseEvent); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Periodic sweep for missed events.
	ticker := time.NewTicker(cfg.TotalsInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := totalsWorker.RecomputeAll(ctx, cfg.TotalsBatchSize); err != nil {
					logger.Error("Periodic totals sweep failed", "error", err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	}

	logger.Info("Worker stopped gracefully")
}
