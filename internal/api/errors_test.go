package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/item-api/internal/api/shared"
	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/service"
	"github.com/phrazzld/item-api/internal/store"
	"github.com/phrazzld/item-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"service not found", service.ErrItemNotFound, http.StatusNotFound},
		{"store item not found", fmt.Errorf("wrapped: %w", store.ErrItemNotFound), http.StatusNotFound},
		{"run not found", store.ErrRunNotFound, http.StatusNotFound},
		{"domain validation", domain.NewValidationError("name", "is required", domain.ErrEmptyItemName), http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"queue full", task.ErrQueueFull, http.StatusServiceUnavailable},
		{"runner stopped", task.ErrRunnerStopped, http.StatusServiceUnavailable},
		{"processing failure", &service.ProcessingError{}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"item not found", service.ErrItemNotFound, "Item not found"},
		{"run not found", store.ErrRunNotFound, "Processing run not found"},
		{"validation", domain.NewValidationError("email", "has invalid format", domain.ErrInvalidEmail), "Invalid email: has invalid format"},
		{"queue full", task.ErrQueueFull, "Too many processing runs queued, try again later"},
		{
			"processing failure",
			&service.ProcessingError{Failures: []*service.ItemProcessingError{{ItemID: 1}, {ItemID: 2}}},
			"Processing failed for 2 item(s)",
		},
		{"sensitive details are hidden", errors.New("dial tcp 10.0.0.5:5432: password=hunter2"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	err := shared.ValidateRequest(&ItemRequest{Name: "Widget", Email: "nope"})
	require.Error(t, err)
	assert.Equal(t, "Invalid email: invalid email format", SanitizeValidationError(err))

	err = shared.ValidateRequest(&ItemRequest{})
	require.Error(t, err)
	assert.Equal(t, "Invalid name: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
