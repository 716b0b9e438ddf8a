package handler

import (
	"net/http"

	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/domain"
	"github.com/quotedesk/quotedesk/internal/mapper"
	"github.com/quotedesk/quotedesk/internal/service"
	"go.uber.org/zap"
)

type StatusHandler struct {
	desk   *service.DeskService
	styles *config.StatusesConfig
	logger *zap.Logger
}

func NewStatusHandler(desk *service.DeskService, styles *config.StatusesConfig, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		desk:   desk,
		styles: styles,
		logger: logger,
	}
}

// List serves the current status vocabulary with display metadata. The
// vocabulary is backend-defined; values without configured styles get the
// neutral fallback.
func (h *StatusHandler) List(w http.ResponseWriter, r *http.Request) {
	values, err := h.desk.Statuses()
	if err != nil {
		respondDomainError(w, err)
		return
	}

	dtos := make([]domain.StatusDTO, 0, len(values))
	for _, v := range values {
		dtos = append(dtos, mapper.ToStatusDTO(v, h.styles))
	}
	respondJSON(w, http.StatusOK, dtos)
}
