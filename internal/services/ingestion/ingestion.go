// Package ingestion accepts inbound events, records the item and hands it
// to the processing worker through the message bus.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// Config holds configuration for the ingestion service.
type Config struct {
	Port       int
	NotifyPath string
}

// RunningService represents a started ingestion service.
type RunningService struct {
	// Shutdown stops the HTTP server gracefully.
	Shutdown func(ctx context.Context) error
}

// Start starts the ingestion HTTP server.
// Listen failures are reported on errorCh.
func Start(ctx context.Context, cfg Config, repo ports.Repository[item.Item], api ports.ExternalAPI, bus ports.MessageBus, logger *slog.Logger, errorCh chan<- error) (*RunningService, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid ingestion port %d", cfg.Port)
	}

	svc := NewService(repo, api, bus, cfg.NotifyPath, logger)
	handler := NewHandler(svc, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting ingestion server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ingestion server error", "error", err)
			errorCh <- fmt.Errorf("ingestion server failed: %w", err)
		}
	}()

	return &RunningService{
		Shutdown: func(shutdownCtx context.Context) error {
			logger.Info("shutting down ingestion service")
			return server.Shutdown(shutdownCtx)
		},
	}, nil
}
