package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/platform/logger"
	"github.com/phrazzld/item-api/internal/store"
)

// ItemService provides item-related operations
type ItemService interface {
	// FindAll returns every stored item
	FindAll(ctx context.Context) ([]*domain.Item, error)

	// FindByID retrieves an item by its ID
	// Returns ErrItemNotFound when the item does not exist
	FindByID(ctx context.Context, id int64) (*domain.Item, error)

	// Create validates and stores a new item. The store assigns its ID and an
	// empty status defaults to domain.ItemStatusNew.
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)

	// Update replaces the fields of an existing item
	// Returns ErrItemNotFound when the item does not exist
	Update(ctx context.Context, id int64, item *domain.Item) (*domain.Item, error)

	// DeleteByID removes an item
	// Returns ErrItemNotFound when the item does not exist
	DeleteByID(ctx context.Context, id int64) error
}

// itemServiceImpl implements the ItemService interface
type itemServiceImpl struct {
	items  store.ItemStore
	tx     store.Transactor
	logger *slog.Logger
}

// NewItemService creates a new ItemService
// It returns an error if any of the required dependencies are nil.
func NewItemService(
	items store.ItemStore,
	tx store.Transactor,
	logger *slog.Logger,
) (ItemService, error) {
	if items == nil {
		return nil, domain.NewValidationError("items", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &itemServiceImpl{
		items:  items,
		tx:     tx,
		logger: logger.With(slog.String("component", "item_service")),
	}, nil
}

// FindAll implements ItemService.FindAll
func (s *itemServiceImpl) FindAll(ctx context.Context) ([]*domain.Item, error) {
	items, err := s.items.FindAll(ctx)
	if err != nil {
		return nil, NewItemServiceError("find_all_items", "failed to list items", err)
	}
	return items, nil
}

// FindByID implements ItemService.FindByID
func (s *itemServiceImpl) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Debug("item not found",
				slog.Int64("item_id", id))
			return nil, ErrItemNotFound
		}
		return nil, NewItemServiceError("find_item", "failed to retrieve item", err)
	}
	return item, nil
}

// Create implements ItemService.Create
func (s *itemServiceImpl) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item = item.Clone()
	item.ID = 0
	if item.Status == "" {
		item.Status = domain.ItemStatusNew
	}

	if err := item.Validate(); err != nil {
		log.Debug("rejected invalid item", slog.String("error", err.Error()))
		return nil, err
	}

	saved, err := s.items.Save(ctx, item)
	if err != nil {
		return nil, NewItemServiceError("create_item", "failed to save item", err)
	}

	log.Info("item created", slog.Int64("item_id", saved.ID))
	return saved, nil
}

// Update implements ItemService.Update
// The existence check and the save run in one transaction so that an item
// deleted concurrently is reported as not found rather than recreated.
func (s *itemServiceImpl) Update(ctx context.Context, id int64, item *domain.Item) (*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item = item.Clone()
	item.ID = id
	if err := item.Validate(); err != nil {
		log.Debug("rejected invalid item",
			slog.Int64("item_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	var saved *domain.Item
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txItems := s.items.WithTx(tx)

		exists, err := txItems.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrItemNotFound
		}

		saved, err = txItems.Save(ctx, item)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			log.Debug("item not found for update", slog.Int64("item_id", id))
		}
		return nil, NewItemServiceError("update_item", "failed to update item", err)
	}

	log.Info("item updated", slog.Int64("item_id", id))
	return saved, nil
}

// DeleteByID implements ItemService.DeleteByID
// The delete is only issued when the item exists.
func (s *itemServiceImpl) DeleteByID(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txItems := s.items.WithTx(tx)

		exists, err := txItems.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrItemNotFound
		}

		return txItems.DeleteByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			log.Debug("item not found for delete", slog.Int64("item_id", id))
		}
		return NewItemServiceError("delete_item", "failed to delete item", err)
	}

	log.Info("item deleted", slog.Int64("item_id", id))
	return nil
}
