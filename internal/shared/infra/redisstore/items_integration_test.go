//go:build integration

package redisstore

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/clock"
	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/testutil"
)

func newTestRepo(t *testing.T) *ItemRepo {
	t.Helper()
	client, err := Connect(context.Background(), testutil.TestRedisURL())
	require.NoError(t, err, "is docker-compose running?")
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewItemRepo(client, logger)
}

func TestItemRepo_SaveIsUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := testutil.UniqueID(t)

	fixed := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	clock.Set(clock.FixedClock{Time: fixed})
	t.Cleanup(clock.Reset)

	pending, err := item.New(id, "Widget", item.StatusPending)
	require.NoError(t, err)
	processed, err := pending.WithStatus(item.StatusProcessed)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, pending))
	require.NoError(t, repo.Save(ctx, processed))

	got, found, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, processed, got)

	stamp, err := repo.client.HGet(ctx, keyPrefix+id, "updated_at").Result()
	require.NoError(t, err)
	assert.Equal(t, fixed.Format(time.RFC3339Nano), stamp)
}

func TestItemRepo_GetUnknown(t *testing.T) {
	repo := newTestRepo(t)

	_, found, err := repo.Get(context.Background(), testutil.UniqueID(t))
	require.NoError(t, err)
	assert.False(t, found)
}
