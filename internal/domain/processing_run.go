package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of a background processing run.
type RunStatus string

// Possible run status values
const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// ErrInvalidRunStatus is returned when a run is moved to an unknown status.
var ErrInvalidRunStatus = errors.New("invalid run status")

// ProcessingRun records one background execution of the bulk item processor.
type ProcessingRun struct {
	ID             uuid.UUID `json:"id"`
	Status         RunStatus `json:"status"`
	ProcessedCount int       `json:"processed_count"`
	FailedIDs      []int64   `json:"failed_ids"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewProcessingRun creates a pending run with a fresh ID.
func NewProcessingRun() *ProcessingRun {
	now := time.Now().UTC()
	return &ProcessingRun{
		ID:        uuid.New(),
		Status:    RunStatusPending,
		FailedIDs: []int64{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start moves the run into processing.
func (r *ProcessingRun) Start() {
	r.Status = RunStatusProcessing
	r.UpdatedAt = time.Now().UTC()
}

// Complete records a successful run.
func (r *ProcessingRun) Complete(processed int) {
	r.Status = RunStatusCompleted
	r.ProcessedCount = processed
	r.FailedIDs = []int64{}
	r.Error = ""
	r.UpdatedAt = time.Now().UTC()
}

// Fail records a failed run. processed counts the items that were saved
// before the failure was reported; they are not rolled back.
func (r *ProcessingRun) Fail(processed int, failedIDs []int64, msg string) {
	r.Status = RunStatusFailed
	r.ProcessedCount = processed
	if failedIDs == nil {
		failedIDs = []int64{}
	}
	r.FailedIDs = failedIDs
	r.Error = msg
	r.UpdatedAt = time.Now().UTC()
}

// IsTerminal reports whether the run has finished, successfully or not.
func (r *ProcessingRun) IsTerminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

// Validate checks the run's invariants.
func (r *ProcessingRun) Validate() error {
	if r.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	switch r.Status {
	case RunStatusPending, RunStatusProcessing, RunStatusCompleted, RunStatusFailed:
	default:
		return ErrInvalidRunStatus
	}
	return nil
}
