package query

import (
	"context"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
)

// ItemReader is the read half of the item repository.
type ItemReader interface {
	Get(ctx context.Context, id string) (item.Item, bool, error)
}
