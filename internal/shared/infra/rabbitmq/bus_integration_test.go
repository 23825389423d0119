//go:build integration

package rabbitmq

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
	"github.com/cornjacket/item-pipeline/internal/testutil"
)

func TestBusRoundTrip_NackRedelivers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b, err := New(Config{
		URL:         testutil.TestRabbitMQURL(),
		Queue:       testutil.UniqueID(t),
		ReceiveWait: 2 * time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	ctx := context.Background()
	require.NoError(t, b.Send(ctx, events.NewItemToProcess("rt-1")))

	first, err := b.Receive(ctx)
	require.NoError(t, err)
	require.False(t, first.Empty())
	require.NoError(t, b.Nack(ctx, first.Handle))

	second, err := b.Receive(ctx)
	require.NoError(t, err)
	require.False(t, second.Empty(), "nacked message must be redelivered")
	id, ok := second.Message.ItemID()
	require.True(t, ok)
	assert.Equal(t, "rt-1", id)
	require.NoError(t, b.Ack(ctx, second.Handle))

	third, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.True(t, third.Empty(), "acked message must be gone")
}
