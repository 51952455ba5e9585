package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/phrazzld/item-api/internal/store"
)

// Common service errors. Callers check for them with errors.Is; the API layer
// maps them to HTTP status codes.
var (
	// ErrItemNotFound indicates that the requested item does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrItemNotFound = errors.New("item not found")
)

// ItemServiceError wraps unexpected errors from the item service with context.
type ItemServiceError struct {
	// Operation is the operation that failed (e.g., "create_item", "delete_item")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ItemServiceError.
func (e *ItemServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("item service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("item service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ItemServiceError) Unwrap() error {
	return e.Err
}

// NewItemServiceError creates a new ItemServiceError.
// Not-found conditions are returned as ErrItemNotFound without wrapping.
func NewItemServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrItemNotFound) || errors.Is(err, store.ErrItemNotFound) {
		return ErrItemNotFound
	}

	return &ItemServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// Operations recorded on an ItemProcessingError.
const (
	OpFind = "find"
	OpSave = "save"
)

// ItemProcessingError records the failure of a single item during bulk
// processing.
type ItemProcessingError struct {
	ItemID int64
	Op     string
	Err    error
}

// Error implements the error interface for ItemProcessingError.
func (e *ItemProcessingError) Error() string {
	return fmt.Sprintf("failed to %s item %d: %v", e.Op, e.ItemID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ItemProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingError is returned by ItemProcessor when one or more items could
// not be processed. It carries every failure, ordered by item ID. Items saved
// before the failures surfaced stay saved; Processed counts them.
type ProcessingError struct {
	Failures  []*ItemProcessingError
	Processed int
}

func newProcessingError(failures []*ItemProcessingError, processed int) *ProcessingError {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].ItemID < failures[j].ItemID
	})
	return &ProcessingError{Failures: failures, Processed: processed}
}

// Error implements the error interface for ProcessingError.
func (e *ProcessingError) Error() string {
	switch len(e.Failures) {
	case 0:
		return "item processing failed"
	case 1:
		return "item processing failed: " + e.Failures[0].Error()
	}

	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("item processing failed for %d items: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes every per-item failure to errors.Is and errors.As.
func (e *ProcessingError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// FailedIDs returns the IDs of the items that failed, in ascending order.
func (e *ProcessingError) FailedIDs() []int64 {
	ids := make([]int64, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.ItemID
	}
	return ids
}

// ProcessedCount returns how many items were saved despite the failures.
func (e *ProcessingError) ProcessedCount() int {
	return e.Processed
}
