package ingestion

import (
	"context"
	"encoding/json"
	"net/url"

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

// mockExternalAPI implements ports.ExternalAPI for testing.
type mockExternalAPI struct {
	GetFn  func(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	PostFn func(ctx context.Context, path string, body any) (json.RawMessage, error)
}

func (m *mockExternalAPI) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return m.GetFn(ctx, path, query)
}

func (m *mockExternalAPI) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return m.PostFn(ctx, path, body)
}

// mockBus implements ports.MessageBus for testing. Only Send is exercised
// by the ingest path.
type mockBus struct {
	SendFn func(ctx context.Context, msg events.Envelope) error
}

func (m *mockBus) Send(ctx context.Context, msg events.Envelope) error {
	return m.SendFn(ctx, msg)
}

func (m *mockBus) Receive(context.Context) (events.Delivery, error) { return events.Delivery{}, nil }
func (m *mockBus) Ack(context.Context, string) error                { return nil }
func (m *mockBus) Nack(context.Context, string) error               { return nil }
func (m *mockBus) Close() error                                     { return nil }

// recordingRepo captures every saved snapshot in order.
type recordingRepo struct {
	saved []item.Item
	err   map[string]error // status -> error returned when saving that status
}

func (r *recordingRepo) Get(context.Context, string) (item.Item, bool, error) {
	return item.Item{}, false, nil
}

func (r *recordingRepo) Save(_ context.Context, it item.Item) error {
	if err := r.err[it.Status().String()]; err != nil {
		return err
	}
	r.saved = append(r.saved, it)
	return nil
}

func (r *recordingRepo) statuses() []string {
	out := make([]string, 0, len(r.saved))
	for _, it := range r.saved {
		out = append(out, it.Status().String())
	}
	return out
}

func okAPI() *mockExternalAPI {
	return &mockExternalAPI{
		PostFn: func(context.Context, string, any) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		},
	}
}

func okBus() *mockBus {
	return &mockBus{SendFn: func(context.Context, events.Envelope) error { return nil }}
}
