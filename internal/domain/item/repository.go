package item

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository is the item directory used by the booking engine.
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// FindByOwnerID returns one page of the owner's items, oldest first.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*Item, error)
	FindIDsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
	// Search returns one page of available items whose name or description
	// contains text, ignoring case.
	Search(ctx context.Context, text string, offset, limit int) ([]*Item, error)
	Save(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
}
