package handler

import (
	"net/http"

	"github.com/alejandrodnm/edgebot/internal/application/engine/sim"
)

// StatsHandler serves the bankroll and performance summary.
type StatsHandler struct {
	sim *sim.Engine
}

func NewStatsHandler(engine *sim.Engine) *StatsHandler {
	return &StatsHandler{sim: engine}
}

// GetStats returns the bankroll state plus derived metrics.
// GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	state, err := h.sim.State(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load state")
		return
	}
	pending, err := h.sim.PendingCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count pending trades")
		return
	}

	roi := 0.0
	if state.StartingBankroll > 0 {
		roi = state.TotalPnL / state.StartingBankroll
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bankroll":          state.Bankroll,
		"starting_bankroll": state.StartingBankroll,
		"total_pnl":         state.TotalPnL,
		"roi":               roi,
		"settled_trades":    state.TotalTrades,
		"winning_trades":    state.WinningTrades,
		"win_rate":          state.WinRate(),
		"pending_trades":    pending,
		"is_running":        state.IsRunning,
		"last_run":          state.LastRun,
	})
}
