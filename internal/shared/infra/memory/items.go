// Package memory holds process-local implementations of the ports.
// State lives only as long as the process; use it for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
	"github.com/cornjacket/item-pipeline/internal/shared/ports"
)

// ItemRepo is a map-backed Repository[item.Item].
type ItemRepo struct {
	mu    sync.RWMutex
	items map[string]item.Item
}

// NewItemRepo creates an empty ItemRepo.
func NewItemRepo() *ItemRepo {
	return &ItemRepo{items: make(map[string]item.Item)}
}

func (r *ItemRepo) Get(_ context.Context, id string) (item.Item, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	return it, ok, nil
}

func (r *ItemRepo) Save(_ context.Context, it item.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.ID()] = it
	return nil
}

// Len returns the number of stored snapshots.
func (r *ItemRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

var _ ports.Repository[item.Item] = (*ItemRepo)(nil)
