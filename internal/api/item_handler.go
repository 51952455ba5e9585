package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/item-api/internal/api/shared"
	"github.com/phrazzld/item-api/internal/platform/logger"
	"github.com/phrazzld/item-api/internal/service"
)

// ItemHandler handles item CRUD requests
type ItemHandler struct {
	itemService service.ItemService
	logger      *slog.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService service.ItemService, logger *slog.Logger) *ItemHandler {
	if itemService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("itemService cannot be nil for ItemHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ItemHandler{
		itemService: itemService,
		logger:      logger.With(slog.String("component", "item_handler")),
	}
}

// ListItems handles GET /api/items requests
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemService.FindAll(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list items")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemsToResponse(items))
}

// GetItem handles GET /api/items/{id} requests
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	item, err := h.itemService.FindByID(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// CreateItem handles POST /api/items requests
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err, nil)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err, nil)
		return
	}

	item, err := h.itemService.Create(r.Context(), req.toDomain())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("item created via API", slog.Int64("item_id", item.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, itemToResponse(item))
}

// UpdateItem handles PUT /api/items/{id} requests
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req ItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err, nil)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err, nil)
		return
	}

	item, err := h.itemService.Update(r.Context(), id, req.toDomain())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// DeleteItem handles DELETE /api/items/{id} requests
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.itemService.DeleteByID(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
