package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRunStore(t *testing.T) (*PostgresRunStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresRunStore(db, nil), mock
}

func TestPostgresRunStore_Create(t *testing.T) {
	s, mock := newMockRunStore(t)
	run := domain.NewProcessingRun()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO processing_runs")).
		WithArgs(run.ID, "pending", 0, "[]", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStore_Get(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	columns := []string{"id", "status", "processed_count", "failed_ids", "error", "created_at", "updated_at"}

	t.Run("found", func(t *testing.T) {
		s, mock := newMockRunStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM processing_runs")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(id.String(), "failed", 3, []byte("[4,9]"), "2 items failed", now, now))

		run, err := s.Get(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, run.ID)
		assert.Equal(t, domain.RunStatusFailed, run.Status)
		assert.Equal(t, 3, run.ProcessedCount)
		assert.Equal(t, []int64{4, 9}, run.FailedIDs)
		assert.Equal(t, "2 items failed", run.Error)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockRunStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM processing_runs")).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := s.Get(context.Background(), id)

		assert.ErrorIs(t, err, store.ErrRunNotFound)
	})
}

func TestPostgresRunStore_Update(t *testing.T) {
	run := domain.NewProcessingRun()
	run.Fail(1, []int64{2}, "boom")

	t.Run("updated", func(t *testing.T) {
		s, mock := newMockRunStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE processing_runs")).
			WithArgs("failed", 1, "[2]", "boom", sqlmock.AnyArg(), run.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.Update(context.Background(), run))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing run", func(t *testing.T) {
		s, mock := newMockRunStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE processing_runs")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.Update(context.Background(), run), store.ErrRunNotFound)
	})
}

func TestPostgresRunStore_FailUnfinished(t *testing.T) {
	s, mock := newMockRunStore(t)
	mock.ExpectExec(regexp.QuoteMeta("WHERE status IN ($4, $5)")).
		WithArgs("failed", "interrupted", sqlmock.AnyArg(), "pending", "processing").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.FailUnfinished(context.Background(), "interrupted")

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
