// Package item holds the Item entity and its Status value type.
//
// Items are immutable snapshots. A status change never mutates an existing
// Item; WithStatus returns the next version of the same logical entity.
package item

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStatus is returned when a string is not one of the known statuses.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidItem is returned when an Item would be constructed with missing fields.
	ErrInvalidItem = errors.New("invalid item")
)

// Item is a snapshot of a processed entity.
type Item struct {
	id     string
	name   string
	status Status
}

// New validates the fields and returns an Item snapshot.
func New(id, name string, status Status) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("%w: id must be a non-empty string", ErrInvalidItem)
	}
	if name == "" {
		return Item{}, fmt.Errorf("%w: name must be a non-empty string", ErrInvalidItem)
	}
	if !status.IsValid() {
		return Item{}, fmt.Errorf("%w: status must be a valid Status", ErrInvalidItem)
	}
	return Item{id: id, name: name, status: status}, nil
}

// Hydrate rebuilds an Item from stored fields, parsing the raw status.
// Used by repositories when reading persisted records.
func Hydrate(id, name, status string) (Item, error) {
	s, err := ParseStatus(status)
	if err != nil {
		return Item{}, err
	}
	return New(id, name, s)
}

// ID returns the item identity.
func (i Item) ID() string { return i.id }

// Name returns the item name.
func (i Item) Name() string { return i.name }

// Status returns the item status.
func (i Item) Status() Status { return i.status }

// WithStatus returns a new snapshot with the same id and name.
func (i Item) WithStatus(status Status) (Item, error) {
	return New(i.id, i.name, status)
}

// Record is the persisted/serialized shape of an Item.
type Record struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Record returns the serializable form of the snapshot.
func (i Item) Record() Record {
	return Record{ID: i.id, Name: i.name, Status: i.status.String()}
}
