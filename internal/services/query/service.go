package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
)

// ErrItemNotFound is returned when no item is stored under the requested id.
var ErrItemNotFound = errors.New("item not found")

// Service handles query business logic.
type Service struct {
	repo   ItemReader
	logger *slog.Logger
}

// NewService creates a new query service.
func NewService(repo ItemReader, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With("service", "query"),
	}
}

// GetItem returns the current snapshot for id.
func (s *Service) GetItem(ctx context.Context, id string) (*item.Record, error) {
	it, found, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Error("failed to get item", "item_id", id, "error", err)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if !found {
		return nil, ErrItemNotFound
	}

	rec := it.Record()
	return &rec, nil
}
