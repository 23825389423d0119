package processing

import (
	"context"
	"sync"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
)

// mockRepository implements ports.Repository[item.Item] for testing.
type mockRepository struct {
	GetFn  func(ctx context.Context, id string) (item.Item, bool, error)
	SaveFn func(ctx context.Context, it item.Item) error
}

func (m *mockRepository) Get(ctx context.Context, id string) (item.Item, bool, error) {
	return m.GetFn(ctx, id)
}

func (m *mockRepository) Save(ctx context.Context, it item.Item) error {
	return m.SaveFn(ctx, it)
}

// mockBus implements ports.MessageBus for testing and records ack/nack calls.
type mockBus struct {
	ReceiveFn func(ctx context.Context) (events.Delivery, error)

	mu     sync.Mutex
	acked  []string
	nacked []string
}

func (m *mockBus) Send(context.Context, events.Envelope) error { return nil }

func (m *mockBus) Receive(ctx context.Context) (events.Delivery, error) {
	return m.ReceiveFn(ctx)
}

func (m *mockBus) Ack(_ context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, handle)
	return nil
}

func (m *mockBus) Nack(_ context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nacked = append(m.nacked, handle)
	return nil
}

func (m *mockBus) Close() error { return nil }

func (m *mockBus) calls() (acked, nacked []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...), append([]string(nil), m.nacked...)
}

// deliverOnce returns d on the first Receive and empty deliveries afterwards.
func deliverOnce(d events.Delivery) func(context.Context) (events.Delivery, error) {
	var once sync.Once
	return func(context.Context) (events.Delivery, error) {
		var out events.Delivery
		once.Do(func() { out = d })
		return out, nil
	}
}

func mustItem(id, name string, status item.Status) item.Item {
	it, err := item.New(id, name, status)
	if err != nil {
		panic(err)
	}
	return it
}
