package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/platform/logger"
	"github.com/phrazzld/item-api/internal/store"
)

const itemColumns = `id, name, description, status, email`

// PostgresItemStore implements the store.ItemStore interface
// using a PostgreSQL database as the storage backend.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresItemStore creates a new PostgreSQL implementation of the ItemStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// Ensure PostgresItemStore implements store.ItemStore interface
var _ store.ItemStore = (*PostgresItemStore)(nil)

// WithTx implements store.ItemStore.WithTx
func (s *PostgresItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &PostgresItemStore{
		db:     tx,
		logger: s.logger,
	}
}

// FindAll implements store.ItemStore.FindAll
func (s *PostgresItemStore) FindAll(ctx context.Context) ([]*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Query every item in ID order
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		log.Error("failed to query items", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	// Scan rows into items; an empty table yields an empty slice
	items := []*domain.Item{}
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Status, &item.Email); err != nil {
			log.Error("failed to scan item row", slog.String("error", err.Error()))
			return nil, err
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("listed items", slog.Int("count", len(items)))
	return items, nil
}

// FindByID implements store.ItemStore.FindByID
// Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresItemStore) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Query the item and scan it into a domain object
	var item domain.Item
	err := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Status,
		&item.Email,
	)
	if err != nil {
		// Check for the not-found case
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("item not found", slog.Int64("item_id", id))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get item by ID",
			slog.String("error", err.Error()),
			slog.Int64("item_id", id))
		return nil, MapError(err)
	}

	return &item, nil
}

// FindAllIDs implements store.ItemStore.FindAllIDs
func (s *PostgresItemStore) FindAllIDs(ctx context.Context) ([]int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Snapshot the current IDs
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM items ORDER BY id`)
	if err != nil {
		log.Error("failed to query item IDs", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			log.Error("failed to scan item ID", slog.String("error", err.Error()))
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return ids, nil
}

// Save implements store.ItemStore.Save
// Items without an ID are inserted. Items with an ID are updated in place;
// returns store.ErrItemNotFound if the row no longer exists.
func (s *PostgresItemStore) Save(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate the item before touching the database
	if err := item.Validate(); err != nil {
		log.Warn("item validation failed during save",
			slog.String("error", err.Error()),
			slog.Int64("item_id", item.ID))
		return nil, err
	}

	var (
		row   *sql.Row
		saved domain.Item
	)
	if item.ID == 0 {
		// New item: the database assigns the ID
		row = s.db.QueryRowContext(ctx, `
			INSERT INTO items (name, description, status, email)
			VALUES ($1, $2, $3, $4)
			RETURNING `+itemColumns,
			item.Name, item.Description, item.Status, item.Email,
		)
	} else {
		// Existing item: a row deleted concurrently matches nothing
		row = s.db.QueryRowContext(ctx, `
			UPDATE items
			SET name = $2, description = $3, status = $4, email = $5
			WHERE id = $1
			RETURNING `+itemColumns,
			item.ID, item.Name, item.Description, item.Status, item.Email,
		)
	}

	if err := row.Scan(&saved.ID, &saved.Name, &saved.Description, &saved.Status, &saved.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("item to update not found", slog.Int64("item_id", item.ID))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to save item",
			slog.String("error", err.Error()),
			slog.Int64("item_id", item.ID))
		return nil, MapError(err)
	}

	log.Debug("item saved",
		slog.Int64("item_id", saved.ID),
		slog.String("status", saved.Status))
	return &saved, nil
}

// ExistsByID implements store.ItemStore.ExistsByID
func (s *PostgresItemStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to check item existence",
			slog.String("error", err.Error()),
			slog.Int64("item_id", id))
		return false, MapError(err)
	}
	return exists, nil
}

// DeleteByID implements store.ItemStore.DeleteByID
// Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresItemStore) DeleteByID(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Execute the delete
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete item",
			slog.String("error", err.Error()),
			slog.Int64("item_id", id))
		return MapError(err)
	}

	// Zero rows affected means the item was not there
	if err := CheckRowsAffected(result, store.ErrItemNotFound); err != nil {
		log.Debug("item not found for delete", slog.Int64("item_id", id))
		return err
	}

	log.Info("item deleted", slog.Int64("item_id", id))
	return nil
}
