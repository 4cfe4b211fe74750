package handler

import (
	"net/http"

	"github.com/alejandrodnm/edgebot/internal/application/events"
)

// EventsHandler serves the recent event log.
type EventsHandler struct {
	bus *events.Bus
}

func NewEventsHandler(bus *events.Bus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// ListEvents returns recent events, newest first.
// GET /api/events?limit=50
func (h *EventsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	evs := h.bus.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(evs),
		"events": evs,
	})
}
