package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// DefaultReceiveWait bounds how long Receive waits for a message.
const DefaultReceiveWait = time.Second

// ErrClosed is returned by Send after Close, and by Receive once a closed
// bus has been drained.
var ErrClosed = errors.New("message bus closed")

// Memory is an in-process FIFO bus. Ack and Nack are no-ops: there is no
// redelivery machinery, a received message is gone.
type Memory struct {
	mu     sync.Mutex
	queue  []events.Envelope
	ready  chan struct{}
	done   chan struct{}
	wait   time.Duration
	closed bool
}

// NewMemory creates an empty bus. A non-positive wait uses DefaultReceiveWait.
func NewMemory(wait time.Duration) *Memory {
	if wait <= 0 {
		wait = DefaultReceiveWait
	}
	return &Memory{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
		wait:  wait,
	}
}

func (m *Memory) Send(_ context.Context, msg events.Envelope) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return nil
}

// Receive dequeues the oldest message, or returns an empty Delivery once the
// wait elapses. Messages queued before Close are still delivered.
func (m *Memory) Receive(ctx context.Context) (events.Delivery, error) {
	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	for {
		msg, ok, closed := m.pop()
		if ok {
			return events.Delivery{Message: msg, Handle: uuid.NewString()}, nil
		}
		if closed {
			return events.Delivery{}, ErrClosed
		}

		select {
		case <-m.ready:
		case <-m.done:
		case <-timer.C:
			return events.Delivery{}, nil
		case <-ctx.Done():
			return events.Delivery{}, ctx.Err()
		}
	}
}

func (m *Memory) pop() (msg events.Envelope, ok, closed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false, m.closed
	}
	msg = m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	return msg, true, m.closed
}

func (m *Memory) Ack(context.Context, string) error { return nil }

func (m *Memory) Nack(context.Context, string) error { return nil }

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Len returns the number of queued messages.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

var _ ports.MessageBus = (*Memory)(nil)
