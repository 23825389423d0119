package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/clock"
	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// ItemRepo implements ports.Repository[item.Item] on the items table.
type ItemRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewItemRepo creates a new ItemRepo.
func NewItemRepo(pool *pgxpool.Pool, logger *slog.Logger) *ItemRepo {
	return &ItemRepo{
		pool:   pool,
		logger: logger.With("repository", "items"),
	}
}

// Get loads the snapshot for id. A missing row is reported as found=false.
func (r *ItemRepo) Get(ctx context.Context, id string) (item.Item, bool, error) {
	query := `SELECT id, name, status FROM items WHERE id = $1`

	var rec item.Record
	err := r.pool.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.Name, &rec.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item.Item{}, false, nil
		}
		return item.Item{}, false, fmt.Errorf("failed to query item: %w", err)
	}

	it, err := item.Hydrate(rec.ID, rec.Name, rec.Status)
	if err != nil {
		return item.Item{}, false, fmt.Errorf("failed to hydrate item %s: %w", id, err)
	}
	return it, true, nil
}

// Save upserts the snapshot keyed by id.
func (r *ItemRepo) Save(ctx context.Context, it item.Item) error {
	query := `
		INSERT INTO items (id, name, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
	`

	rec := it.Record()
	if _, err := r.pool.Exec(ctx, query, rec.ID, rec.Name, rec.Status, clock.Now()); err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	r.logger.Debug("item saved", "item_id", rec.ID, "status", rec.Status)
	return nil
}

var _ ports.Repository[item.Item] = (*ItemRepo)(nil)
