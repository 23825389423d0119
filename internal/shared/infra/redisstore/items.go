// Package redisstore stores items as Redis hashes keyed "item:<id>".
package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/clock"
	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

const keyPrefix = "item:"

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// ItemRepo implements ports.Repository[item.Item] on Redis hashes.
type ItemRepo struct {
	client *redis.Client
	logger *slog.Logger
}

// NewItemRepo creates a new ItemRepo.
func NewItemRepo(client *redis.Client, logger *slog.Logger) *ItemRepo {
	return &ItemRepo{
		client: client,
		logger: logger.With("repository", "items-redis"),
	}
}

func (r *ItemRepo) Get(ctx context.Context, id string) (item.Item, bool, error) {
	data, err := r.client.HGetAll(ctx, keyPrefix+id).Result()
	if err != nil {
		return item.Item{}, false, fmt.Errorf("failed to read item: %w", err)
	}
	if len(data) == 0 {
		return item.Item{}, false, nil
	}

	it, err := item.Hydrate(data["id"], data["name"], data["status"])
	if err != nil {
		return item.Item{}, false, fmt.Errorf("failed to hydrate item %s: %w", id, err)
	}
	return it, true, nil
}

// Save overwrites every field of the hash in one round trip.
func (r *ItemRepo) Save(ctx context.Context, it item.Item) error {
	rec := it.Record()
	err := r.client.HSet(ctx, keyPrefix+rec.ID,
		"id", rec.ID,
		"name", rec.Name,
		"status", rec.Status,
		"updated_at", clock.Now().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to write item: %w", err)
	}

	r.logger.Debug("item saved", "item_id", rec.ID, "status", rec.Status)
	return nil
}

var _ ports.Repository[item.Item] = (*ItemRepo)(nil)
