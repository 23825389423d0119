// Package query serves read-side lookups of stored items.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Config holds configuration for the query service.
type Config struct {
	Port int
}

// RunningService represents a started query service.
type RunningService struct {
	// Shutdown stops the HTTP server gracefully.
	Shutdown func(ctx context.Context) error
}

// Start starts the query HTTP server.
// Listen failures are reported on errorCh.
func Start(ctx context.Context, cfg Config, repo ItemReader, logger *slog.Logger, errorCh chan<- error) (*RunningService, error) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      newRouter(repo, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger = logger.With("service", "query")

	go func() {
		logger.Info("starting query server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("query server error", "error", err)
			errorCh <- fmt.Errorf("query server failed: %w", err)
		}
	}()

	return &RunningService{
		Shutdown: func(shutdownCtx context.Context) error {
			logger.Info("shutting down query service")
			return server.Shutdown(shutdownCtx)
		},
	}, nil
}

// newRouter wires the query service and its handler onto one router.
func newRouter(repo ItemReader, logger *slog.Logger) http.Handler {
	return NewHandler(NewService(repo, logger), logger.With("service", "query")).Routes()
}
