package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quotedesk/quotedesk/internal/events"
	"go.uber.org/zap"
)

type EventHandler struct {
	bus    *events.Bus
	logger *zap.Logger
}

func NewEventHandler(bus *events.Bus, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		bus:    bus,
		logger: logger,
	}
}

// Stream serves cache change notifications as server-sent events. The
// stream stays open until the client disconnects or the bus closes; events
// dropped for a slow client are not replayed, the client re-queries the
// list instead.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id, ch := h.bus.Subscribe(16)
	defer h.bus.Unsubscribe(id)

	h.logger.Debug("event stream opened", zap.Int("subscriber", id))

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("event stream closed", zap.Int("subscriber", id))
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("could not encode event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
