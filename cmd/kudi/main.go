package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"kudi/internal/amqp"
	"kudi/internal/config"
	apphttp "kudi/internal/http"
	"kudi/internal/ledger"
	"kudi/internal/ledger/memory"
	applog "kudi/internal/log"
	"kudi/internal/rates"
	"kudi/internal/services"
	"kudi/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		store  ledger.Ledger
		rules  ledger.RuleRepository
		limits ledger.LimitsStore
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store, rules, limits = repo, repo, repo
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		m := memory.New()
		store, rules, limits = m, m, m
		logger.Info("Initialized memory backend")
	}

	var converter rates.Converter
	if cfg.RatesAPIKey != "" {
		converter = rates.NewClient(cfg.RatesURL, cfg.RatesAPIKey, cfg.BaseCurrency, cfg.RatesTTL)
		logger.Info("Live conversion rates enabled", "base", cfg.BaseCurrency, "ttl", cfg.RatesTTL)
	} else {
		converter = rates.Static{Base: cfg.BaseCurrency}
		logger.Info("No rates API key, foreign amounts will be flagged for reconciliation",
			"base", cfg.BaseCurrency)
	}

	var pub services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event stream", "error", err)
		} else {
			defer client.Close()
			pub = client
			logger.Info("AMQP event stream enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	entries := services.NewEntryService(store, converter, pub)

	server := apphttp.NewServer(apphttp.Deps{
		Entries:      entries,
		Scheduler:    services.NewScheduler(rules, entries),
		Aggregator:   services.NewAggregator(store),
		Store:        store,
		Rules:        rules,
		Limits:       limits,
		BaseCurrency: cfg.BaseCurrency,
		Logger:       logger.WithComponent(applog.ComponentHTTP).Logger,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        server.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting kudi server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}
