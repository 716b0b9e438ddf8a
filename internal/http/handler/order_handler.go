package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/quotedesk/quotedesk/internal/domain"
	"github.com/quotedesk/quotedesk/internal/mapper"
	"github.com/quotedesk/quotedesk/internal/service"
	"github.com/quotedesk/quotedesk/internal/view"
	"go.uber.org/zap"
)

type OrderHandler struct {
	desk   *service.DeskService
	logger *zap.Logger
}

func NewOrderHandler(desk *service.DeskService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		desk:   desk,
		logger: logger,
	}
}

// List serves the projected order list. Filtering and sorting happen
// against the in-memory cache; the backing store is never queried here.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := view.State{
		Status:       q.Get("status"),
		Search:       q.Get("search"),
		SelectedOnly: q.Get("selectedOnly") == "true",
		SortDesc:     q.Get("sortDesc") != "false",
	}

	rows, err := h.desk.View(state)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToOrderViews(rows))
}

// Get serves the full joined detail for one order, fetched live from the
// store.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, ann, err := h.desk.OrderDetail(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToOrderDetail(order, ann))
}

// UpdateStatus validates and applies a status change. The change is
// optimistic: the response confirms acceptance, not persistence, and a
// failed write is reverted through the event stream.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req domain.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.desk.ChangeStatus(id, req.Status); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":     id,
		"status": req.Status,
	})
}

// CycleSelection advances the order's selection level by one, wrapping
// back to zero.
func (h *OrderHandler) CycleSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	ann, err := h.desk.CycleSelection(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToAnnotationDTO(id, ann))
}

// Groups lists the active custom groups.
func (h *OrderHandler) Groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.desk.ActiveGroups(r.Context())
	if err != nil {
		h.logger.Warn("custom group fetch failed", zap.Error(err))
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToGroupDTOs(groups))
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}
