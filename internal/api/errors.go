package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/item-api/internal/api/shared"
	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/service"
	"github.com/phrazzld/item-api/internal/store"
	"github.com/phrazzld/item-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var (
		validationErr  *domain.ValidationError
		validationErrs validator.ValidationErrors
	)

	switch {
	// Not found errors
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.As(err, &validationErr),
		errors.As(err, &validationErrs),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Background processing is saturated or shutting down
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrRunnerStopped):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var (
		validationErr  *domain.ValidationError
		validationErrs validator.ValidationErrors
		processingErr  *service.ProcessingError
	)

	switch {
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, store.ErrItemNotFound):
		return "Item not found"

	case errors.Is(err, store.ErrRunNotFound):
		return "Processing run not found"

	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)

	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid item data"

	case errors.Is(err, store.ErrDuplicate):
		return "Item already exists"

	case errors.Is(err, task.ErrQueueFull):
		return "Too many processing runs queued, try again later"

	case errors.Is(err, task.ErrRunnerStopped):
		return "Processing is shutting down"

	case errors.As(err, &processingErr):
		return fmt.Sprintf("Processing failed for %d item(s)", len(processingErr.Failures))

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the error response for err. An empty message selects
// the safe message for the error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), message, err, nil)
}
