package events

import (
	"encoding/json"
	"fmt"
)

// TypeItemToProcess tags the follow-up event published after ingestion.
const TypeItemToProcess = "ItemToProcess"

// Envelope is the open-ended message exchanged over the bus.
// It carries at least a "type" tag plus payload fields such as "item_id".
// An empty (nil or zero-length) Envelope means "no message".
type Envelope map[string]any

// NewItemToProcess builds the follow-up event for the given item.
func NewItemToProcess(itemID string) Envelope {
	return Envelope{
		"type":    TypeItemToProcess,
		"item_id": itemID,
	}
}

// Type returns the "type" tag, or "" when absent.
func (e Envelope) Type() string {
	s, _ := e["type"].(string)
	return s
}

// IsEmpty reports whether the envelope carries no fields.
func (e Envelope) IsEmpty() bool {
	return len(e) == 0
}

// ItemID extracts "item_id" from either accepted inbound shape:
//
//	{"item_id": "X"}
//	{"body": {"item_id": "X"}}
//
// The nested form wins when both are present, matching how broker backends
// wrap the published payload.
func (e Envelope) ItemID() (string, bool) {
	if body, ok := e["body"].(map[string]any); ok {
		if id, ok := body["item_id"].(string); ok && id != "" {
			return id, true
		}
	}
	if body, ok := e["body"].(Envelope); ok {
		if id, ok := body["item_id"].(string); ok && id != "" {
			return id, true
		}
	}
	if id, ok := e["item_id"].(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// Encode serializes the envelope for transport.
func Encode(e Envelope) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return b, nil
}

// Decode parses a transported message body into an envelope.
func Decode(b []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return e, nil
}

// Wrap nests a decoded broker payload under "body", the shape durable
// backends hand to consumers.
func Wrap(body Envelope) Envelope {
	return Envelope{"body": map[string]any(body)}
}

// Delivery is a received message plus the backend handle used to ack or nack it.
type Delivery struct {
	Message Envelope
	Handle  string
}

// Empty reports whether the delivery is the "no message" result of a timed-out receive.
func (d Delivery) Empty() bool {
	return d.Message.IsEmpty()
}
