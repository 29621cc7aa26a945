package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an item id does not resolve to a record.
var ErrNotFound = errors.New("item not found")

type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, item *Item) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Item, int, error)
	ListByCategory(ctx context.Context, category string, limit, offset int) ([]*Item, int, error)
	ListADAFriendly(ctx context.Context, limit, offset int) ([]*Item, int, error)
}
