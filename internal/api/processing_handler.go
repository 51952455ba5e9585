package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/item-api/internal/api/shared"
	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/platform/logger"
	"github.com/phrazzld/item-api/internal/service"
	"github.com/phrazzld/item-api/internal/task"
)

// AsyncProcessor starts bulk item processing without blocking the caller.
type AsyncProcessor interface {
	ProcessAllAsync(ctx context.Context) *task.Future[[]*domain.Item]
}

// RunSubmitter queues background processing runs.
type RunSubmitter interface {
	Submit(ctx context.Context) (*domain.ProcessingRun, error)
}

// RunReader looks up processing runs.
type RunReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.ProcessingRun, error)
}

// ProcessingHandler handles bulk processing requests
type ProcessingHandler struct {
	processor AsyncProcessor
	runner    RunSubmitter
	runs      RunReader
	logger    *slog.Logger
}

// NewProcessingHandler creates a new ProcessingHandler
func NewProcessingHandler(
	processor AsyncProcessor,
	runner RunSubmitter,
	runs RunReader,
	logger *slog.Logger,
) *ProcessingHandler {
	if processor == nil || runner == nil || runs == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("processor, runner and runs are required for ProcessingHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ProcessingHandler{
		processor: processor,
		runner:    runner,
		runs:      runs,
		logger:    logger.With(slog.String("component", "processing_handler")),
	}
}

// ProcessItems handles GET /api/items/process requests.
// It marks every item as processed and responds once all items have been
// attempted.
func (h *ProcessingHandler) ProcessItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	future := h.processor.ProcessAllAsync(r.Context())
	items, err := future.Await(r.Context())
	if err != nil {
		var perr *service.ProcessingError
		if errors.As(err, &perr) {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, GetSafeErrorMessage(err), err,
				ProcessingErrorResponse{
					Error:     GetSafeErrorMessage(err),
					FailedIDs: perr.FailedIDs(),
					Processed: perr.ProcessedCount(),
					TraceID:   shared.GetTraceID(r.Context()),
				})
			return
		}

		HandleAPIError(w, r, err, "Failed to process items")
		return
	}

	log.Info("items processed via API", slog.Int("count", len(items)))
	shared.RespondWithJSON(w, r, http.StatusOK, itemsToResponse(items))
}

// SubmitRun handles POST /api/processing-runs requests
func (h *ProcessingHandler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runner.Submit(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.Header().Set("Location", "/api/processing-runs/"+run.ID.String())
	shared.RespondWithJSON(w, r, http.StatusAccepted, runToResponse(run))
}

// GetRun handles GET /api/processing-runs/{id} requests
func (h *ProcessingHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, runToResponse(run))
}
