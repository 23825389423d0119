package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
)

func TestMemory_SendThenReceive(t *testing.T) {
	b := NewMemory(50 * time.Millisecond)
	ctx := context.Background()

	sent := events.NewItemToProcess("123")
	require.NoError(t, b.Send(ctx, sent))

	d, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, sent, d.Message)
	assert.NotEmpty(t, d.Handle)
}

func TestMemory_FIFO(t *testing.T) {
	b := NewMemory(50 * time.Millisecond)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, b.Send(ctx, events.NewItemToProcess(id)))
	}

	for _, want := range []string{"a", "b", "c"} {
		d, err := b.Receive(ctx)
		require.NoError(t, err)
		got, ok := d.Message.ItemID()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 0, b.Len())
}

func TestMemory_ReceiveEmptyTimesOut(t *testing.T) {
	b := NewMemory(30 * time.Millisecond)

	start := time.Now()
	d, err := b.Receive(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, d.Empty())
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestMemory_ReceiveWakesOnSend(t *testing.T) {
	b := NewMemory(2 * time.Second)
	ctx := context.Background()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = b.Send(ctx, events.NewItemToProcess("late"))
	}()

	start := time.Now()
	d, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.False(t, d.Empty())
	assert.Less(t, time.Since(start), time.Second)
}

func TestMemory_ReceiveHonorsContext(t *testing.T) {
	b := NewMemory(5 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := b.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, d.Empty())
}

func TestMemory_AckNackAreNoOps(t *testing.T) {
	b := NewMemory(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, b.Send(ctx, events.NewItemToProcess("x")))
	d, err := b.Receive(ctx)
	require.NoError(t, err)

	assert.NoError(t, b.Nack(ctx, d.Handle))
	assert.NoError(t, b.Ack(ctx, d.Handle))
	assert.Equal(t, 0, b.Len(), "nack must not requeue")
}

func TestMemory_SendAfterClose(t *testing.T) {
	b := NewMemory(10 * time.Millisecond)
	require.NoError(t, b.Close())

	err := b.Send(context.Background(), events.NewItemToProcess("x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_ReceiveAfterCloseDrainsThenFails(t *testing.T) {
	b := NewMemory(time.Second)
	ctx := context.Background()
	require.NoError(t, b.Send(ctx, events.NewItemToProcess("queued")))
	require.NoError(t, b.Close())

	d, err := b.Receive(ctx)
	require.NoError(t, err)
	id, ok := d.Message.ItemID()
	require.True(t, ok)
	assert.Equal(t, "queued", id)

	start := time.Now()
	_, err = b.Receive(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "a drained closed bus fails without waiting")
}

func TestMemory_CloseWakesBlockedReceiver(t *testing.T) {
	b := NewMemory(5 * time.Second)
	errCh := make(chan error, 1)
	go func() {
		_, err := b.Receive(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("receiver not woken by Close")
	}
}
