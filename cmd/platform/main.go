package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cornjacket/item-pipeline/internal/client/externalapi"
	"github.com/cornjacket/item-pipeline/internal/services/ingestion"
	"github.com/cornjacket/item-pipeline/internal/services/processing"
	"github.com/cornjacket/item-pipeline/internal/services/query"
	"github.com/cornjacket/item-pipeline/internal/shared/config"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/bus"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("starting item pipeline",
		"env", cfg.AppEnv,
		"store", cfg.StoreBackend,
		"broker", cfg.MessageBroker,
		"api", cfg.EnableAPI,
		"worker", cfg.EnableWorker,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared external resources
	items, err := store.Open(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to open item store", "error", err)
		os.Exit(1)
	}
	defer items.Close()

	messageBus, err := bus.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to create message bus", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := messageBus.Close(); err != nil {
			slog.Error("failed to close message bus", "error", err)
		}
	}()

	api := externalapi.New(cfg.ExternalAPIBaseURL, cfg.ExternalAPITimeout, logger)

	// Start services; shutdown runs in reverse order
	errorCh := make(chan error, 2)
	var shutdowns []namedShutdown

	if cfg.EnableAPI {
		ingestionSvc, err := ingestion.Start(ctx, ingestion.Config{
			Port:       cfg.PortIngestion,
			NotifyPath: cfg.ExternalAPINotifyPath,
		}, items.Items, api, messageBus, logger, errorCh)
		if err != nil {
			slog.Error("failed to start ingestion service", "error", err)
			os.Exit(1)
		}
		shutdowns = append(shutdowns, namedShutdown{"ingestion", ingestionSvc.Shutdown})

		querySvc, err := query.Start(ctx, query.Config{
			Port: cfg.PortQuery,
		}, items.Items, logger, errorCh)
		if err != nil {
			slog.Error("failed to start query service", "error", err)
			os.Exit(1)
		}
		shutdowns = append(shutdowns, namedShutdown{"query", querySvc.Shutdown})
	}

	if cfg.EnableWorker {
		processingSvc, err := processing.Start(ctx, processing.Config{
			PollInterval: cfg.WorkerPollInterval,
		}, items.Items, messageBus, logger)
		if err != nil {
			slog.Error("failed to start processing service", "error", err)
			os.Exit(1)
		}
		shutdowns = append(shutdowns, namedShutdown{"processing", processingSvc.Shutdown})
	}

	if len(shutdowns) == 0 {
		slog.Warn("no services enabled", "enable_api", cfg.EnableAPI, "enable_worker", cfg.EnableWorker)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errorCh:
		slog.Error("service failed", "error", err)
	case <-ctx.Done():
		slog.Info("context cancelled")
	}

	// Graceful shutdown (reverse order)
	slog.Info("shutting down services...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	for i := len(shutdowns) - 1; i >= 0; i-- {
		s := shutdowns[i]
		if err := s.fn(shutdownCtx); err != nil {
			slog.Error("service shutdown error", "service", s.name, "error", err)
		}
	}
	cancel()

	slog.Info("item pipeline stopped")
}

type namedShutdown struct {
	name string
	fn   func(ctx context.Context) error
}

// newLogger creates a structured logger based on configuration.
func newLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
