package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kudi/internal/amqp"
	"kudi/internal/config"
	"kudi/internal/core"
	applog "kudi/internal/log"
	"kudi/internal/rates"
	"kudi/internal/services"
	"kudi/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentScheduler})
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

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

	var converter rates.Converter
	if cfg.RatesAPIKey != "" {
		converter = rates.NewClient(cfg.RatesURL, cfg.RatesAPIKey, cfg.BaseCurrency, cfg.RatesTTL)
	} else {
		converter = rates.Static{Base: cfg.BaseCurrency}
	}

	var pub services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event stream", "error", err)
		} else {
			defer client.Close()
			pub = client
		}
	}

	entries := services.NewEntryService(repo, converter, pub)
	scheduler := services.NewScheduler(repo, entries)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := core.SystemClock{}
	logger.Info("Recurring scheduler configured",
		"interval", cfg.SchedulerInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	runOnce := func() {
		eval := core.Today(clock)
		res, err := scheduler.Run(ctx, eval)
		if err != nil {
			logger.Error("Scheduler run failed", "error", err, "date", eval.String())
			return
		}
		logger.Info("Scheduler run complete",
			"date", eval.String(),
			"materialized", len(res.Materialized),
			"issues", len(res.Issues))
	}

	// Catch up immediately on startup, then tick.
	runOnce()

	ticker := time.NewTicker(cfg.SchedulerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker shutdown complete")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
