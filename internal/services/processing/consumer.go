package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// DefaultPollInterval is the pause between receive attempts.
const DefaultPollInterval = time.Second

// Consumer is the single worker loop draining the message bus.
type Consumer struct {
	bus          ports.MessageBus
	service      *Service
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewConsumer creates a worker loop. A non-positive interval uses DefaultPollInterval.
func NewConsumer(bus ports.MessageBus, service *Service, pollInterval time.Duration, logger *slog.Logger) *Consumer {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Consumer{
		bus:          bus,
		service:      service,
		pollInterval: pollInterval,
		logger:       logger.With("component", "item-consumer"),
	}
}

// Start runs the loop and blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting item consumer", "poll_interval", c.pollInterval)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("item consumer stopping")
			return nil
		default:
		}

		c.processNext(ctx)

		select {
		case <-ctx.Done():
			c.logger.Info("item consumer stopping")
			return nil
		case <-time.After(c.pollInterval):
		}
	}
}

// processNext handles at most one delivery. Success and permanent failures
// are acked; anything else is nacked for redelivery.
func (c *Consumer) processNext(ctx context.Context) {
	d, err := c.bus.Receive(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Error("failed to receive message", "error", err)
		}
		return
	}
	if d.Empty() {
		return
	}

	logger := c.logger.With("handle", d.Handle)

	itemID, ok := d.Message.ItemID()
	if !ok {
		logger.Warn("dropping message without item_id", "type", d.Message.Type())
		c.ack(ctx, logger, d)
		return
	}
	logger = logger.With("item_id", itemID)

	logger.Info("processing queued item")
	result, err := c.handle(ctx, itemID)
	switch {
	case err == nil:
		logger.Info("item processed", "message", result.Message)
		c.ack(ctx, logger, d)
	case errors.Is(err, ErrItemNotFound):
		logger.Warn("dropping message for unknown item", "error", err)
		c.ack(ctx, logger, d)
	default:
		logger.Error("failed to process item", "error", err)
		c.nack(ctx, logger, d)
	}
}

// handle keeps a panic in the use case from ending the loop.
func (c *Consumer) handle(ctx context.Context, itemID string) (out *ProcessItemOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing item: %v", r)
		}
	}()
	return c.service.ProcessItemFromQueue(ctx, itemID)
}

func (c *Consumer) ack(ctx context.Context, logger *slog.Logger, d events.Delivery) {
	if err := c.bus.Ack(ctx, d.Handle); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}

func (c *Consumer) nack(ctx context.Context, logger *slog.Logger, d events.Delivery) {
	if err := c.bus.Nack(ctx, d.Handle); err != nil {
		logger.Error("failed to nack message", "error", err)
	}
}
