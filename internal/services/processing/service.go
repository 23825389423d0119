package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// ErrItemNotFound is returned when the queued id has no stored item.
var ErrItemNotFound = errors.New("item not found")

// ProcessItemOutput is returned after an item is marked processed.
type ProcessItemOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ItemID  string `json:"item_id"`
}

// Service runs the consumption use case.
type Service struct {
	repo   ports.Repository[item.Item]
	logger *slog.Logger
}

// NewService creates a new processing service.
func NewService(repo ports.Repository[item.Item], logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With("service", "processing"),
	}
}

// ProcessItemFromQueue marks the stored item processed whatever its current
// status, so repeated deliveries of the same id converge on the same state.
func (s *Service) ProcessItemFromQueue(ctx context.Context, itemID string) (*ProcessItemOutput, error) {
	current, found, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", itemID, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	processed, err := current.WithStatus(item.StatusProcessed)
	if err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", itemID, err)
	}
	if err := s.repo.Save(ctx, processed); err != nil {
		return nil, fmt.Errorf("failed to save item %s: %w", itemID, err)
	}

	s.logger.Debug("item processed", "item_id", itemID, "previous_status", current.Status().String())

	return &ProcessItemOutput{
		Success: true,
		Message: "item processed",
		ItemID:  itemID,
	}, nil
}
