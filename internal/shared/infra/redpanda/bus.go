// Package redpanda implements the MessageBus on a Kafka-compatible log.
//
// Ack commits the delivered record's offset. Because a log cannot return a
// single record to the head, Nack re-produces the record to the tail of the
// topic and then commits the original.
package redpanda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// ErrUnknownHandle is returned by Ack/Nack for a handle not returned by Receive.
var ErrUnknownHandle = errors.New("unknown delivery handle")

// ErrClientClosed is returned by Receive once the consumer client is closed.
var ErrClientClosed = errors.New("redpanda client closed")

// Config holds broker settings for the bus.
type Config struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	ReceiveWait   time.Duration
}

// Bus produces to and consumes from one topic.
// The consumer joins its group lazily so publish-only processes never own partitions.
type Bus struct {
	producer *kgo.Client
	config   Config
	logger   *slog.Logger

	mu       sync.Mutex
	consumer *kgo.Client
	pending  map[string]*kgo.Record
}

// New creates the producer client. The consumer is created on first Receive.
func New(cfg Config, logger *slog.Logger) (*Bus, error) {
	producer, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redpanda client: %w", err)
	}
	if cfg.ReceiveWait <= 0 {
		cfg.ReceiveWait = time.Second
	}

	return &Bus{
		producer: producer,
		config:   cfg,
		logger:   logger.With("bus", "redpanda", "topic", cfg.Topic),
		pending:  make(map[string]*kgo.Record),
	}, nil
}

// Send produces synchronously, keyed by item id for per-item ordering.
func (b *Bus) Send(ctx context.Context, msg events.Envelope) error {
	value, err := events.Encode(msg)
	if err != nil {
		return err
	}

	record := &kgo.Record{Topic: b.config.Topic, Value: value}
	if id, ok := msg.ItemID(); ok {
		record.Key = []byte(id)
	}

	if err := b.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.config.Topic, err)
	}

	b.logger.Debug("message published", "type", msg.Type())
	return nil
}

// Receive polls for at most one record within the wait window.
func (b *Bus) Receive(ctx context.Context) (events.Delivery, error) {
	consumer, err := b.consumerClient()
	if err != nil {
		return events.Delivery{}, err
	}

	pollCtx, cancel := context.WithTimeout(ctx, b.config.ReceiveWait)
	defer cancel()

	fetches := consumer.PollRecords(pollCtx, 1)
	if fetches.IsClientClosed() {
		return events.Delivery{}, ErrClientClosed
	}
	for _, fe := range fetches.Errors() {
		if errors.Is(fe.Err, context.DeadlineExceeded) || errors.Is(fe.Err, context.Canceled) {
			continue
		}
		return events.Delivery{}, fmt.Errorf("fetch error on %s/%d: %w", fe.Topic, fe.Partition, fe.Err)
	}

	records := fetches.Records()
	if len(records) == 0 {
		if ctx.Err() != nil {
			return events.Delivery{}, ctx.Err()
		}
		return events.Delivery{}, nil
	}

	record := records[0]
	handle := recordHandle(record)
	b.mu.Lock()
	b.pending[handle] = record
	b.mu.Unlock()

	msg, err := events.Decode(record.Value)
	if err != nil {
		b.logger.Error("invalid record on topic", "handle", handle, "error", err)
		return events.Delivery{Message: events.Envelope{"raw": string(record.Value)}, Handle: handle}, nil
	}
	return events.Delivery{Message: events.Wrap(msg), Handle: handle}, nil
}

func (b *Bus) consumerClient() (*kgo.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumer != nil {
		return b.consumer, nil
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.config.Brokers...),
		kgo.ConsumerGroup(b.config.ConsumerGroup),
		kgo.ConsumeTopics(b.config.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redpanda consumer: %w", err)
	}
	b.consumer = consumer
	b.logger.Info("consumer started", "group_id", b.config.ConsumerGroup)
	return consumer, nil
}

// Ack commits the record's offset.
func (b *Bus) Ack(ctx context.Context, handle string) error {
	record, err := b.take(handle)
	if err != nil {
		return err
	}
	if err := b.consumer.CommitRecords(ctx, record); err != nil {
		return fmt.Errorf("failed to commit %s: %w", handle, err)
	}
	return nil
}

// Nack re-publishes the record for redelivery, then commits the original.
func (b *Bus) Nack(ctx context.Context, handle string) error {
	record, err := b.take(handle)
	if err != nil {
		return err
	}

	retry := &kgo.Record{Topic: record.Topic, Key: record.Key, Value: record.Value, Headers: record.Headers}
	if err := b.producer.ProduceSync(ctx, retry).FirstErr(); err != nil {
		b.mu.Lock()
		b.pending[handle] = record
		b.mu.Unlock()
		return fmt.Errorf("failed to requeue %s: %w", handle, err)
	}
	if err := b.consumer.CommitRecords(ctx, record); err != nil {
		return fmt.Errorf("failed to commit %s: %w", handle, err)
	}
	return nil
}

func (b *Bus) take(handle string) (*kgo.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	record, ok := b.pending[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	delete(b.pending, handle)
	return record, nil
}

// Close closes the consumer (if started) and the producer.
func (b *Bus) Close() error {
	b.mu.Lock()
	consumer := b.consumer
	b.mu.Unlock()

	if consumer != nil {
		consumer.Close()
	}
	b.producer.Close()
	b.logger.Info("Redpanda bus closed")
	return nil
}

func recordHandle(r *kgo.Record) string {
	return fmt.Sprintf("%s/%d/%d", r.Topic, r.Partition, r.Offset)
}

var _ ports.MessageBus = (*Bus)(nil)
