package query

import (
	"context"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
)

// mockItemReader implements ItemReader for testing.
type mockItemReader struct {
	GetFn func(ctx context.Context, id string) (item.Item, bool, error)
}

func (m *mockItemReader) Get(ctx context.Context, id string) (item.Item, bool, error) {
	return m.GetFn(ctx, id)
}
