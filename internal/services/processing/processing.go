// Package processing consumes ItemToProcess messages and marks the
// referenced items processed.
package processing

import (
	"context"
	"log/slog"
	"time"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// Config holds configuration for the processing service.
type Config struct {
	PollInterval time.Duration
}

// RunningService represents a started processing service.
type RunningService struct {
	// Shutdown stops the consumer and waits for the in-flight message.
	Shutdown func(ctx context.Context) error
}

// Start starts the worker loop. The bus is owned by the caller and is not
// closed on shutdown.
func Start(ctx context.Context, cfg Config, repo ports.Repository[item.Item], bus ports.MessageBus, logger *slog.Logger) (*RunningService, error) {
	svc := NewService(repo, logger)

	logger = logger.With("service", "processing")
	consumer := NewConsumer(bus, svc, cfg.PollInterval, logger)

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := consumer.Start(loopCtx); err != nil {
			logger.Error("item consumer error", "error", err)
		}
	}()

	return &RunningService{
		Shutdown: func(shutdownCtx context.Context) error {
			logger.Info("shutting down processing service")
			cancel()
			select {
			case <-done:
				return nil
			case <-shutdownCtx.Done():
				return shutdownCtx.Err()
			}
		},
	}, nil
}
