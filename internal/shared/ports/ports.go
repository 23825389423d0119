// Package ports declares the capabilities the use cases consume.
// Each port has one implementation per backend under internal/shared/infra
// or internal/client.
package ports

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/events"
)

// Repository persists entities keyed by id.
type Repository[T any] interface {
	// Get returns the stored entity. An unknown id yields found=false and a nil error.
	Get(ctx context.Context, id string) (entity T, found bool, err error)

	// Save upserts by id. A second save with the same id replaces the snapshot.
	Save(ctx context.Context, entity T) error
}

// MessageBus publishes and consumes envelopes.
// Consumers must treat every delivery as at-least-once.
type MessageBus interface {
	// Send returns once the backend accepted the message.
	Send(ctx context.Context, msg events.Envelope) error

	// Receive returns the next message, or an empty Delivery after a bounded wait.
	Receive(ctx context.Context) (events.Delivery, error)

	// Ack marks the delivery as processed.
	Ack(ctx context.Context, handle string) error

	// Nack marks the delivery as failed; redelivery is backend-defined.
	Nack(ctx context.Context, handle string) error

	// Close releases backend connections.
	Close() error
}

// ExternalAPI is the outbound HTTP collaborator.
// Non-success responses surface as errors. No retries are performed.
type ExternalAPI interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
}
