package api

import (
	"time"

	"github.com/phrazzld/item-api/internal/domain"
)

// ItemRequest is the request body for creating or replacing an item.
type ItemRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=4096"`
	Status      string `json:"status" validate:"max=64"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func (req *ItemRequest) toDomain() *domain.Item {
	return &domain.Item{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Email:       req.Email,
	}
}

// ItemResponse represents the response data for an item
type ItemResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Email       string `json:"email"`
}

func itemToResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Status:      item.Status,
		Email:       item.Email,
	}
}

func itemsToResponse(items []*domain.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i] = itemToResponse(item)
	}
	return out
}

// ProcessingErrorResponse is returned when bulk processing fails for some items.
type ProcessingErrorResponse struct {
	Error     string  `json:"error"`
	FailedIDs []int64 `json:"failed_ids"`
	Processed int     `json:"processed"`
	TraceID   string  `json:"trace_id,omitempty"`
}

// ProcessingRunResponse represents the response data for a processing run
type ProcessingRunResponse struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	ProcessedCount int       `json:"processed_count"`
	FailedIDs      []int64   `json:"failed_ids"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func runToResponse(run *domain.ProcessingRun) ProcessingRunResponse {
	failed := run.FailedIDs
	if failed == nil {
		failed = []int64{}
	}
	return ProcessingRunResponse{
		ID:             run.ID.String(),
		Status:         string(run.Status),
		ProcessedCount: run.ProcessedCount,
		FailedIDs:      failed,
		Error:          run.Error,
		CreatedAt:      run.CreatedAt,
		UpdatedAt:      run.UpdatedAt,
	}
}
