// Package store opens the configured item repository backend.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cornjacket/item-pipeline/internal/shared/config"
	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/memory"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/postgres"
	"github.com/cornjacket/item-pipeline/internal/shared/infra/redisstore"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// Store is an opened item repository and the function that releases it.
type Store struct {
	Items ports.Repository[item.Item]
	Close func()
}

// Open connects to the backend named by cfg.StoreBackend. For Postgres,
// migrations run first when cfg.RunMigrations is set.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Info("using in-memory item store")
		return &Store{Items: memory.NewItemRepo(), Close: func() {}}, nil

	case config.StorePostgres:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			logger.Info("database migrations applied")
		}
		client, err := postgres.NewClient(ctx, cfg.DatabaseURL, postgres.PoolConfig{}, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Items: postgres.NewItemRepo(client.Pool(), logger),
			Close: client.Close,
		}, nil

	case config.StoreRedis:
		client, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to redis item store")
		return &Store{
			Items: redisstore.NewItemRepo(client, logger),
			Close: func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close redis client", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
