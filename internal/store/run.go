package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/item-api/internal/domain"
)

// RunStore persists background processing runs.
// Version: 1.0
type RunStore interface {
	// Create saves a new run.
	Create(ctx context.Context, run *domain.ProcessingRun) error

	// Get retrieves a run by ID.
	// Returns ErrRunNotFound if the run does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.ProcessingRun, error)

	// Update writes the run's status and outcome fields.
	// Returns ErrRunNotFound if the run does not exist.
	Update(ctx context.Context, run *domain.ProcessingRun) error

	// FailUnfinished marks every pending or processing run as failed with the
	// given message and returns how many runs were affected. It is used at
	// startup to close out runs abandoned by a previous process.
	FailUnfinished(ctx context.Context, message string) (int64, error)
}
