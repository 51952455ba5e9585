package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/platform/logger"
	"github.com/phrazzld/item-api/internal/store"
)

// PostgresRunStore implements store.RunStore.
type PostgresRunStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRunStore creates a new PostgreSQL implementation of the RunStore interface.
func NewPostgresRunStore(db store.DBTX, logger *slog.Logger) *PostgresRunStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRunStore{
		db:     db,
		logger: logger.With(slog.String("component", "run_store")),
	}
}

var _ store.RunStore = (*PostgresRunStore)(nil)

// Create implements store.RunStore.Create
func (s *PostgresRunStore) Create(ctx context.Context, run *domain.ProcessingRun) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate the run before insertion
	if err := run.Validate(); err != nil {
		return err
	}

	// failed_ids is stored as a JSONB array
	failedIDs, err := encodeFailedIDs(run.FailedIDs)
	if err != nil {
		return err
	}

	// Insert the run
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO processing_runs (id, status, processed_count, failed_ids, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		run.ID,
		string(run.Status),
		run.ProcessedCount,
		failedIDs,
		run.Error,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create processing run",
			slog.String("error", err.Error()),
			slog.String("run_id", run.ID.String()))
		return MapError(err)
	}

	log.Debug("processing run created", slog.String("run_id", run.ID.String()))
	return nil
}

// Get implements store.RunStore.Get
func (s *PostgresRunStore) Get(ctx context.Context, id uuid.UUID) (*domain.ProcessingRun, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		run       domain.ProcessingRun
		status    string
		failedIDs []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, status, processed_count, failed_ids, error, created_at, updated_at
		FROM processing_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID,
		&status,
		&run.ProcessedCount,
		&failedIDs,
		&run.Error,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		// Check for the not-found case
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRunNotFound
		}
		log.Error("failed to get processing run",
			slog.String("error", err.Error()),
			slog.String("run_id", id.String()))
		return nil, MapError(err)
	}

	// Convert the stored columns back into domain values
	run.Status = domain.RunStatus(status)
	if err := json.Unmarshal(failedIDs, &run.FailedIDs); err != nil {
		return nil, fmt.Errorf("failed to decode failed_ids for run %s: %w", id, err)
	}
	if run.FailedIDs == nil {
		run.FailedIDs = []int64{}
	}

	return &run, nil
}

// Update implements store.RunStore.Update
func (s *PostgresRunStore) Update(ctx context.Context, run *domain.ProcessingRun) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate the run before updating
	if err := run.Validate(); err != nil {
		return err
	}

	failedIDs, err := encodeFailedIDs(run.FailedIDs)
	if err != nil {
		return err
	}

	// Execute the update
	result, err := s.db.ExecContext(ctx, `
		UPDATE processing_runs
		SET status = $1, processed_count = $2, failed_ids = $3, error = $4, updated_at = $5
		WHERE id = $6
	`,
		string(run.Status),
		run.ProcessedCount,
		failedIDs,
		run.Error,
		run.UpdatedAt,
		run.ID,
	)
	if err != nil {
		log.Error("failed to update processing run",
			slog.String("error", err.Error()),
			slog.String("run_id", run.ID.String()))
		return MapError(err)
	}

	// Zero rows affected means the run does not exist
	return CheckRowsAffected(result, store.ErrRunNotFound)
}

// FailUnfinished implements store.RunStore.FailUnfinished
func (s *PostgresRunStore) FailUnfinished(ctx context.Context, message string) (int64, error) {
	// Mark every pending or processing run as failed in one statement
	result, err := s.db.ExecContext(ctx, `
		UPDATE processing_runs
		SET status = $1, error = $2, updated_at = $3
		WHERE status IN ($4, $5)
	`,
		string(domain.RunStatusFailed),
		message,
		time.Now().UTC(),
		string(domain.RunStatusPending),
		string(domain.RunStatusProcessing),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to close out unfinished runs",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	return result.RowsAffected()
}

func encodeFailedIDs(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode failed_ids: %w", err)
	}
	return string(b), nil
}
