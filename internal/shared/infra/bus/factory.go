// Package bus selects and constructs the configured MessageBus backend.
package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cornjacket/item-pipeline/internal/shared/config"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/rabbitmq"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/redpanda"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/sqsqueue"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// New builds the backend named by cfg.MessageBroker.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.MessageBus, error) {
	switch cfg.MessageBroker {
	case config.BrokerInMemory:
		logger.Info("using in-memory message bus")
		return NewMemory(cfg.BusReceiveWait), nil

	case config.BrokerRabbitMQ:
		return rabbitmq.New(rabbitmq.Config{
			URL:         cfg.RabbitMQURL,
			Queue:       cfg.RabbitMQQueue,
			ReceiveWait: cfg.BusReceiveWait,
		}, logger)

	case config.BrokerSQS:
		return sqsqueue.New(ctx, sqsqueue.Config{
			QueueURL:    cfg.SQSQueueURL,
			Region:      cfg.AWSRegion,
			Endpoint:    cfg.SQSEndpoint,
			ReceiveWait: cfg.BusReceiveWait,
		}, logger)

	case config.BrokerRedpanda:
		return redpanda.New(redpanda.Config{
			Brokers:       cfg.Brokers(),
			Topic:         cfg.RedpandaTopic,
			ConsumerGroup: cfg.RedpandaConsumerGroup,
			ReceiveWait:   cfg.BusReceiveWait,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown message broker %q", cfg.MessageBroker)
	}
}
