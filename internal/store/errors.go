package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrItemNotFound indicates that the requested item does not exist in the store.
	ErrItemNotFound = fmt.Errorf("%w: item", ErrNotFound)

	// ErrRunNotFound indicates that the requested processing run does not exist in the store.
	ErrRunNotFound = fmt.Errorf("%w: processing run", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// Entity-specific errors wrap ErrNotFound, so one check covers them all.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
