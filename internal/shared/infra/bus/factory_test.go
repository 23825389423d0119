package bus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/item-pipeline/internal/shared/config"
)

func TestNew_InMemory(t *testing.T) {
	b, err := New(context.Background(), &config.Config{
		MessageBroker:  config.BrokerInMemory,
		BusReceiveWait: 10 * time.Millisecond,
	}, slog.Default())
	require.NoError(t, err)

	mem, ok := b.(*Memory)
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, mem.wait)
}

func TestNew_UnknownBroker(t *testing.T) {
	_, err := New(context.Background(), &config.Config{MessageBroker: "carrier-pigeon"}, slog.Default())
	assert.ErrorContains(t, err, `unknown message broker "carrier-pigeon"`)
}
