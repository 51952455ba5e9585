package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/item-api/internal/domain"
)

// ItemStore defines the interface for item data persistence.
// Version: 1.0
type ItemStore interface {
	// FindAll returns every stored item ordered by ID.
	// Returns an empty slice, never nil, when there are no items.
	FindAll(ctx context.Context) ([]*domain.Item, error)

	// FindByID retrieves an item by its ID.
	// Returns ErrItemNotFound if the item does not exist.
	FindByID(ctx context.Context, id int64) (*domain.Item, error)

	// FindAllIDs returns the IDs of all items known at call time.
	FindAllIDs(ctx context.Context) ([]int64, error)

	// Save persists the item's current field values and returns the stored form.
	// An item with ID 0 is inserted and receives a store-assigned ID; any other
	// item updates the existing row. Returns ErrItemNotFound if that row has
	// been deleted in the meantime.
	Save(ctx context.Context, item *domain.Item) (*domain.Item, error)

	// ExistsByID reports whether an item with the given ID is stored.
	ExistsByID(ctx context.Context, id int64) (bool, error)

	// DeleteByID removes an item.
	// Returns ErrItemNotFound if no row was deleted.
	DeleteByID(ctx context.Context, id int64) error

	// WithTx returns a new ItemStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) ItemStore
}
