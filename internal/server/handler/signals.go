package handler

import (
	"net/http"

	"github.com/alejandrodnm/edgebot/internal/application/runner"
	"github.com/alejandrodnm/edgebot/internal/domain"
)

// SignalsHandler serves the latest scan cycle's signals.
type SignalsHandler struct {
	runner *runner.Runner
}

func NewSignalsHandler(r *runner.Runner) *SignalsHandler {
	return &SignalsHandler{runner: r}
}

// ListSignals returns the most recent scan's signals, optionally filtered to
// the actionable ones.
// GET /api/signals?actionable=true
func (h *SignalsHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	signals := h.runner.Signals()

	if r.URL.Query().Get("actionable") == "true" {
		actionable := make([]domain.Signal, 0, len(signals))
		for _, s := range signals {
			if s.Actionable {
				actionable = append(actionable, s)
			}
		}
		signals = actionable
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(signals),
		"signals": signals,
	})
}
