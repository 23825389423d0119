// Package rabbitmq implements the durable-broker MessageBus on a named,
// durable RabbitMQ queue.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// DefaultQueue is the queue name used when none is configured.
const DefaultQueue = "events"

// ErrConsumerClosed is returned when the delivery stream is gone and the
// session could not be reopened.
var ErrConsumerClosed = errors.New("rabbitmq consumer channel closed")

// ErrStaleHandle is returned by Ack/Nack for a delivery received on a session
// that has since been closed. The broker has already requeued it.
var ErrStaleHandle = errors.New("rabbitmq delivery belongs to a closed session")

// channel is the subset of *amqp.Channel the bus uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple, requeue bool) error
	Close() error
}

// opener dials a fresh session: publish channel, consume channel and the
// connection that owns them.
type opener func() (pub, con channel, conn io.Closer, err error)

// Config holds connection settings for the bus.
type Config struct {
	URL         string
	Queue       string
	ReceiveWait time.Duration
}

// Bus publishes to and consumes from one durable queue.
// Publishing and consuming use separate channels; the consumer is started
// lazily so publish-only processes never hold unacked deliveries.
// When the broker closes the session the bus drops it and reopens on next use.
type Bus struct {
	queue  string
	wait   time.Duration
	reopen opener
	logger *slog.Logger

	mu         sync.Mutex
	conn       io.Closer
	pub        channel
	con        channel
	session    uint64
	deliveries <-chan amqp.Delivery
}

// New dials the broker, declares the durable queue and sets prefetch to 1.
func New(cfg Config, logger *slog.Logger) (*Bus, error) {
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}

	dial := func() (channel, channel, io.Closer, error) {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}

		pub, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, nil, fmt.Errorf("failed to open publish channel: %w", err)
		}
		con, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, nil, fmt.Errorf("failed to open consume channel: %w", err)
		}

		if _, err := pub.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, nil, nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		if err := con.Qos(1, 0, false); err != nil {
			conn.Close()
			return nil, nil, nil, fmt.Errorf("failed to set prefetch: %w", err)
		}
		return pub, con, conn, nil
	}

	pub, con, conn, err := dial()
	if err != nil {
		return nil, err
	}

	b := newBus(pub, con, queue, cfg.ReceiveWait, logger)
	b.conn = conn
	b.reopen = dial
	return b, nil
}

func newBus(pub, con channel, queue string, wait time.Duration, logger *slog.Logger) *Bus {
	if wait <= 0 {
		wait = time.Second
	}
	return &Bus{
		pub:     pub,
		con:     con,
		session: 1,
		queue:   queue,
		wait:    wait,
		logger:  logger.With("bus", "rabbitmq", "queue", queue),
	}
}

// Send publishes a persistent JSON message through the default exchange.
func (b *Bus) Send(ctx context.Context, msg events.Envelope) error {
	body, err := events.Encode(msg)
	if err != nil {
		return err
	}

	pub, _, _, err := b.channels()
	if err != nil {
		return err
	}

	err = pub.PublishWithContext(ctx, "", b.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			b.drop(func() bool { return b.pub == pub })
		}
		return fmt.Errorf("failed to publish to %s: %w", b.queue, err)
	}

	b.logger.Debug("message published", "type", msg.Type())
	return nil
}

// Receive waits up to the configured window for one delivery.
// The decoded payload is returned nested under "body"; an undecodable payload
// is returned as {"raw": "<body>"} so the caller can ack it away.
// A closed stream drops the session and yields an empty delivery; the next
// call resubscribes on a fresh session.
func (b *Bus) Receive(ctx context.Context) (events.Delivery, error) {
	deliveries, session, err := b.consume()
	if err != nil {
		return events.Delivery{}, err
	}

	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	select {
	case d, ok := <-deliveries:
		if !ok {
			b.logger.Warn("consumer stream closed by broker, reopening session")
			b.drop(func() bool { return b.deliveries == deliveries })
			return events.Delivery{}, nil
		}
		handle := formatHandle(session, d.DeliveryTag)
		msg, err := events.Decode(d.Body)
		if err != nil {
			b.logger.Error("invalid message on queue", "handle", handle, "error", err)
			return events.Delivery{Message: events.Envelope{"raw": string(d.Body)}, Handle: handle}, nil
		}
		return events.Delivery{Message: events.Wrap(msg), Handle: handle}, nil
	case <-timer.C:
		return events.Delivery{}, nil
	case <-ctx.Done():
		return events.Delivery{}, ctx.Err()
	}
}

// channels returns the live session, reopening it if it was dropped.
func (b *Bus) channels() (pub, con channel, session uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.con != nil {
		return b.pub, b.con, b.session, nil
	}
	if b.reopen == nil {
		return nil, nil, 0, ErrConsumerClosed
	}

	pub, con, conn, err := b.reopen()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrConsumerClosed, err)
	}
	b.pub, b.con, b.conn = pub, con, conn
	b.session++
	b.logger.Info("session reopened", "session", b.session)
	return pub, con, b.session, nil
}

func (b *Bus) consume() (<-chan amqp.Delivery, uint64, error) {
	_, con, session, err := b.channels()
	if err != nil {
		return nil, 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deliveries != nil && b.session == session {
		return b.deliveries, session, nil
	}

	deliveries, err := con.Consume(b.queue, "", false, false, false, false, nil)
	if err != nil {
		if errors.Is(err, amqp.ErrClosed) && b.con == con {
			b.dropLocked()
		}
		return nil, 0, fmt.Errorf("failed to consume from %s: %w", b.queue, err)
	}
	b.deliveries = deliveries
	b.logger.Info("consumer started", "session", session)
	return deliveries, session, nil
}

// drop closes the current session if stale still reports it as current.
func (b *Bus) drop(stale func() bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.con == nil || !stale() {
		return
	}
	b.dropLocked()
}

func (b *Bus) dropLocked() {
	for _, c := range b.closers() {
		_ = c.Close()
	}
	b.pub, b.con, b.conn, b.deliveries = nil, nil, nil, nil
}

// Ack permanently removes the delivery from the queue.
func (b *Bus) Ack(_ context.Context, handle string) error {
	con, tag, err := b.forHandle(handle)
	if err != nil {
		return err
	}
	if err := con.Ack(tag, false); err != nil {
		return fmt.Errorf("failed to ack delivery %s: %w", handle, err)
	}
	return nil
}

// Nack returns the delivery to the queue for redelivery.
func (b *Bus) Nack(_ context.Context, handle string) error {
	con, tag, err := b.forHandle(handle)
	if err != nil {
		return err
	}
	if err := con.Nack(tag, false, true); err != nil {
		return fmt.Errorf("failed to nack delivery %s: %w", handle, err)
	}
	return nil
}

// forHandle resolves a handle to its delivery tag on the live consume channel.
func (b *Bus) forHandle(handle string) (channel, uint64, error) {
	session, tag, err := parseHandle(handle)
	if err != nil {
		return nil, 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.con == nil || session != b.session {
		return nil, 0, fmt.Errorf("%w: %s", ErrStaleHandle, handle)
	}
	return b.con, tag, nil
}

// Close closes both channels and the connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, c := range b.closers() {
		if err := c.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	b.pub, b.con, b.conn, b.deliveries = nil, nil, nil, nil
	b.reopen = nil
	b.logger.Info("RabbitMQ bus closed")
	return errors.Join(errs...)
}

func (b *Bus) closers() []io.Closer {
	var out []io.Closer
	if b.con != nil {
		out = append(out, b.con)
	}
	if b.pub != nil {
		out = append(out, b.pub)
	}
	if b.conn != nil {
		out = append(out, b.conn)
	}
	return out
}

func formatHandle(session, tag uint64) string {
	return strconv.FormatUint(session, 10) + "." + strconv.FormatUint(tag, 10)
}

func parseHandle(handle string) (session, tag uint64, err error) {
	rawSession, rawTag, ok := strings.Cut(handle, ".")
	if !ok {
		return 0, 0, fmt.Errorf("invalid delivery handle %q", handle)
	}
	if session, err = strconv.ParseUint(rawSession, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid delivery handle %q: %w", handle, err)
	}
	if tag, err = strconv.ParseUint(rawTag, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid delivery handle %q: %w", handle, err)
	}
	return session, tag, nil
}

var _ ports.MessageBus = (*Bus)(nil)
