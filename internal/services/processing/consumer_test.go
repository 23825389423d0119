package processing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/bus"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/memory"
)

func TestConsumer_ExtractsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		msg  events.Envelope
	}{
		{"flat", events.Envelope{"item_id": "X"}},
		{"nested", events.Envelope{"body": map[string]any{"item_id": "X"}}},
		{"wrapped", events.Wrap(events.NewItemToProcess("X"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dispatched []string
			repo := &mockRepository{
				GetFn: func(_ context.Context, id string) (item.Item, bool, error) {
					dispatched = append(dispatched, id)
					return mustItem(id, "n", item.StatusInitialized), true, nil
				},
				SaveFn: func(context.Context, item.Item) error { return nil },
			}
			b := &mockBus{ReceiveFn: deliverOnce(events.Delivery{Message: tt.msg, Handle: "h1"})}

			c := NewConsumer(b, NewService(repo, slog.Default()), time.Millisecond, slog.Default())
			c.processNext(context.Background())

			assert.Equal(t, []string{"X"}, dispatched)
			acked, nacked := b.calls()
			assert.Equal(t, []string{"h1"}, acked)
			assert.Empty(t, nacked)
		})
	}
}

func TestConsumer_AckNackPolicy(t *testing.T) {
	boom := errors.New("store down")

	tests := []struct {
		name       string
		msg        events.Envelope
		getFn      func(context.Context, string) (item.Item, bool, error)
		wantAcked  []string
		wantNacked []string
	}{
		{
			name: "success acks",
			msg:  events.NewItemToProcess("1"),
			getFn: func(_ context.Context, id string) (item.Item, bool, error) {
				return mustItem(id, "n", item.StatusInitialized), true, nil
			},
			wantAcked: []string{"h"},
		},
		{
			name: "not found acks",
			msg:  events.NewItemToProcess("1"),
			getFn: func(context.Context, string) (item.Item, bool, error) {
				return item.Item{}, false, nil
			},
			wantAcked: []string{"h"},
		},
		{
			name:      "missing item_id acks",
			msg:       events.Envelope{"type": "Something"},
			wantAcked: []string{"h"},
		},
		{
			name: "store failure nacks",
			msg:  events.NewItemToProcess("1"),
			getFn: func(context.Context, string) (item.Item, bool, error) {
				return item.Item{}, false, boom
			},
			wantNacked: []string{"h"},
		},
		{
			name: "panic nacks",
			msg:  events.NewItemToProcess("1"),
			getFn: func(context.Context, string) (item.Item, bool, error) {
				panic("unexpected")
			},
			wantNacked: []string{"h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				GetFn:  tt.getFn,
				SaveFn: func(context.Context, item.Item) error { return nil },
			}
			b := &mockBus{ReceiveFn: deliverOnce(events.Delivery{Message: tt.msg, Handle: "h"})}

			c := NewConsumer(b, NewService(repo, slog.Default()), time.Millisecond, slog.Default())
			c.processNext(context.Background())

			acked, nacked := b.calls()
			if tt.wantAcked == nil {
				assert.Empty(t, acked)
			} else {
				assert.Equal(t, tt.wantAcked, acked)
			}
			if tt.wantNacked == nil {
				assert.Empty(t, nacked)
			} else {
				assert.Equal(t, tt.wantNacked, nacked)
			}
		})
	}
}

func TestConsumer_EmptyDeliveryIsNotAcked(t *testing.T) {
	repo := &mockRepository{
		GetFn: func(context.Context, string) (item.Item, bool, error) {
			t.Fatal("Get should not be called for an empty delivery")
			return item.Item{}, false, nil
		},
	}
	b := &mockBus{ReceiveFn: func(context.Context) (events.Delivery, error) { return events.Delivery{}, nil }}

	c := NewConsumer(b, NewService(repo, slog.Default()), time.Millisecond, slog.Default())
	c.processNext(context.Background())

	acked, nacked := b.calls()
	assert.Empty(t, acked)
	assert.Empty(t, nacked)
}

func TestConsumer_ReceiveErrorKeepsLooping(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	b := &mockBus{ReceiveFn: func(context.Context) (events.Delivery, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return events.Delivery{}, errors.New("connection reset")
	}}

	c := NewConsumer(b, NewService(memory.NewItemRepo(), slog.Default()), time.Millisecond, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 3
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestConsumer_EndToEndWithMemoryBus(t *testing.T) {
	repo := memory.NewItemRepo()
	require.NoError(t, repo.Save(context.Background(), mustItem("123", "TestItem", item.StatusInitialized)))

	b := bus.NewMemory(5 * time.Millisecond)
	require.NoError(t, b.Send(context.Background(), events.NewItemToProcess("123")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewConsumer(b, NewService(repo, slog.Default()), time.Millisecond, slog.Default())
	go func() { _ = c.Start(ctx) }()

	require.Eventually(t, func() bool {
		stored, _, _ := repo.Get(context.Background(), "123")
		return stored.Status() == item.StatusProcessed
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, b.Len())
}
