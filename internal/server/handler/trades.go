package handler

import (
	"net/http"

	"github.com/alejandrodnm/edgebot/internal/application/engine/sim"
	"github.com/alejandrodnm/edgebot/internal/domain"
)

const maxTradeLimit = 500

// TradesHandler serves the trade log and equity curve.
type TradesHandler struct {
	sim *sim.Engine
}

func NewTradesHandler(engine *sim.Engine) *TradesHandler {
	return &TradesHandler{sim: engine}
}

// ListTrades returns stored trades, newest first.
// GET /api/trades?limit=50&status=pending|win|loss
func (h *TradesHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit <= 0 || limit > maxTradeLimit {
		limit = maxTradeLimit
	}

	var result domain.TradeResult
	switch status := r.URL.Query().Get("status"); status {
	case "":
	case string(domain.ResultPending), string(domain.ResultWin), string(domain.ResultLoss):
		result = domain.TradeResult(status)
	default:
		writeError(w, http.StatusBadRequest, "status must be pending, win or loss")
		return
	}

	trades, err := h.sim.Trades(r.Context(), limit, result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load trades")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(trades),
		"trades": trades,
	})
}

// GetEquityCurve returns the bankroll trajectory in settlement order.
// GET /api/equity-curve
func (h *TradesHandler) GetEquityCurve(w http.ResponseWriter, r *http.Request) {
	points, err := h.sim.EquityCurve(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load equity curve")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(points),
		"points": points,
	})
}
