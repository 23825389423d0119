package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofrs/uuid/v5"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// DefaultNotifyPath is the external API path called with the pending snapshot.
const DefaultNotifyPath = "/post"

// defaultName is used when the payload carries no name key at all.
const defaultName = "unknown"

// ProcessEventInput is an opaque ingest payload. It is expected to carry
// "name" and optionally "id".
type ProcessEventInput struct {
	Payload map[string]any
}

// ProcessEventOutput is returned after a successful ingest.
type ProcessEventOutput struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	ItemID  *string `json:"item_id"`
}

// Service runs the ingest use case.
type Service struct {
	repo       ports.Repository[item.Item]
	api        ports.ExternalAPI
	bus        ports.MessageBus
	notifyPath string
	logger     *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(repo ports.Repository[item.Item], api ports.ExternalAPI, bus ports.MessageBus, notifyPath string, logger *slog.Logger) *Service {
	if notifyPath == "" {
		notifyPath = DefaultNotifyPath
	}
	return &Service{
		repo:       repo,
		api:        api,
		bus:        bus,
		notifyPath: notifyPath,
		logger:     logger.With("service", "ingestion"),
	}
}

// ProcessEvent stores the item as pending, notifies the external API, marks
// the item initialized and publishes an ItemToProcess message.
//
// Every failure is returned as *ApplicationError. Once the pending snapshot
// is stored, a failed notify or status save overwrites it with a failed
// snapshot. A failed publish leaves the item initialized: the broker may
// still have taken the message, and the worker could already have stored
// processed.
func (s *Service) ProcessEvent(ctx context.Context, in ProcessEventInput) (*ProcessEventOutput, error) {
	id, err := resolveID(in.Payload)
	if err != nil {
		return nil, s.fail("resolve id", "", err)
	}
	name, err := resolveName(in.Payload)
	if err != nil {
		return nil, s.fail("validate item", id, err)
	}

	pending, err := item.New(id, name, item.StatusPending)
	if err != nil {
		return nil, s.fail("validate item", id, err)
	}

	if err := s.repo.Save(ctx, pending); err != nil {
		return nil, s.fail("save pending item", id, err)
	}

	s.logger.Info("notifying external api", "item_id", id)
	notice := map[string]string{"item_id": id, "status": pending.Status().String()}
	if _, err := s.api.Post(ctx, s.notifyPath, notice); err != nil {
		s.markFailed(ctx, pending)
		return nil, s.fail("notify external api", id, err)
	}

	s.logger.Info("updating item status", "item_id", id, "status", item.StatusInitialized.String())
	initialized, err := pending.WithStatus(item.StatusInitialized)
	if err != nil {
		s.markFailed(ctx, pending)
		return nil, s.fail("update item status", id, err)
	}
	if err := s.repo.Save(ctx, initialized); err != nil {
		s.markFailed(ctx, pending)
		return nil, s.fail("save initialized item", id, err)
	}

	s.logger.Info("publishing item to process", "item_id", id)
	if err := s.bus.Send(ctx, events.NewItemToProcess(id)); err != nil {
		return nil, s.fail("publish item to process", id, err)
	}

	return &ProcessEventOutput{
		Success: true,
		Message: item.StatusInitialized.String(),
		ItemID:  &id,
	}, nil
}

// markFailed overwrites the stored snapshot with status failed. It runs
// detached from cancellation so an aborted request still records the outcome.
func (s *Service) markFailed(ctx context.Context, current item.Item) {
	failed, err := current.WithStatus(item.StatusFailed)
	if err != nil {
		return
	}
	if err := s.repo.Save(context.WithoutCancel(ctx), failed); err != nil {
		s.logger.Error("failed to mark item as failed", "item_id", current.ID(), "error", err)
	}
}

func (s *Service) fail(op, itemID string, err error) error {
	s.logger.Error("failed to process event", "op", op, "item_id", itemID, "error", err)
	return &ApplicationError{Op: op, ItemID: itemID, Err: err}
}

func resolveID(payload map[string]any) (string, error) {
	if raw, ok := payload["id"]; ok && raw != nil {
		id, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("%w: id must be a string", item.ErrInvalidItem)
		}
		if id != "" {
			return id, nil
		}
	}

	generated, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return generated.String(), nil
}

func resolveName(payload map[string]any) (string, error) {
	raw, ok := payload["name"]
	if !ok {
		return defaultName, nil
	}
	name, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: name must be a string", item.ErrInvalidItem)
	}
	return name, nil
}
