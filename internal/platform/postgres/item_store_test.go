package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockItemStore(t *testing.T) (*PostgresItemStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresItemStore(db, nil), mock
}

var itemRowColumns = []string{"id", "name", "description", "status", "email"}

func TestPostgresItemStore_FindAll(t *testing.T) {
	s, mock := newMockItemStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, status, email FROM items ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow(int64(1), "Widget", "", "NEW", "a@example.com").
			AddRow(int64(2), "Gadget", "blue", "PROCESSED", ""))

	items, err := s.FindAll(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, &domain.Item{ID: 1, Name: "Widget", Status: "NEW", Email: "a@example.com"}, items[0])
	assert.Equal(t, "PROCESSED", items[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresItemStore_FindAll_Empty(t *testing.T) {
	s, mock := newMockItemStore(t)

	mock.ExpectQuery("SELECT .* FROM items").WillReturnRows(sqlmock.NewRows(itemRowColumns))

	items, err := s.FindAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestPostgresItemStore_FindByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s, mock := newMockItemStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE id = $1")).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(int64(5), "Widget", "d", "NEW", ""))

		item, err := s.FindByID(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, int64(5), item.ID)
		assert.Equal(t, "d", item.Description)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockItemStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE id = $1")).
			WithArgs(int64(6)).
			WillReturnError(sql.ErrNoRows)

		item, err := s.FindByID(context.Background(), 6)

		assert.Nil(t, item)
		assert.ErrorIs(t, err, store.ErrItemNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		s, mock := newMockItemStore(t)
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE id = $1")).
			WithArgs(int64(7)).
			WillReturnError(dbErr)

		_, err := s.FindByID(context.Background(), 7)

		assert.ErrorIs(t, err, dbErr)
		assert.False(t, store.IsNotFoundError(err))
	})
}

func TestPostgresItemStore_FindAllIDs(t *testing.T) {
	s, mock := newMockItemStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM items ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(9)))

	ids, err := s.FindAllIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 9}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresItemStore_Save(t *testing.T) {
	t.Run("insert assigns ID", func(t *testing.T) {
		s, mock := newMockItemStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO items (name, description, status, email)")).
			WithArgs("Widget", "", "NEW", "").
			WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(int64(42), "Widget", "", "NEW", ""))

		saved, err := s.Save(context.Background(), &domain.Item{Name: "Widget", Status: "NEW"})

		require.NoError(t, err)
		assert.Equal(t, int64(42), saved.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing ID is updated", func(t *testing.T) {
		s, mock := newMockItemStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE items")).
			WithArgs(int64(3), "Widget", "", "PROCESSED", "").
			WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(int64(3), "Widget", "", "PROCESSED", ""))

		saved, err := s.Save(context.Background(), &domain.Item{ID: 3, Name: "Widget", Status: "PROCESSED"})

		require.NoError(t, err)
		assert.Equal(t, "PROCESSED", saved.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleted row is not recreated", func(t *testing.T) {
		s, mock := newMockItemStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE items")).
			WithArgs(int64(3), "Widget", "", "PROCESSED", "").
			WillReturnRows(sqlmock.NewRows(itemRowColumns))

		saved, err := s.Save(context.Background(), &domain.Item{ID: 3, Name: "Widget", Status: "PROCESSED"})

		assert.Nil(t, saved)
		assert.ErrorIs(t, err, store.ErrItemNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid item never reaches the database", func(t *testing.T) {
		s, mock := newMockItemStore(t)

		_, err := s.Save(context.Background(), &domain.Item{ID: 3})

		assert.ErrorIs(t, err, domain.ErrEmptyItemName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("check violation maps to invalid entity", func(t *testing.T) {
		s, mock := newMockItemStore(t)
		mock.ExpectQuery("INSERT INTO items").
			WillReturnError(&pgconn.PgError{Code: checkViolationCode, ConstraintName: "items_name_check"})

		_, err := s.Save(context.Background(), &domain.Item{Name: "Widget"})

		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestPostgresItemStore_ExistsByID(t *testing.T) {
	s, mock := newMockItemStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.ExistsByID(context.Background(), 8)

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPostgresItemStore_DeleteByID(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		s, mock := newMockItemStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE id = $1")).
			WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.DeleteByID(context.Background(), 4))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows affected", func(t *testing.T) {
		s, mock := newMockItemStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE id = $1")).
			WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.DeleteByID(context.Background(), 4), store.ErrItemNotFound)
	})
}

func TestPostgresItemStore_WithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM items").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	base := NewPostgresItemStore(db, nil)
	err = store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		return base.WithTx(tx).DeleteByID(ctx, 1)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
