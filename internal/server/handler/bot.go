package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/edgebot/internal/application/engine/sim"
	"github.com/alejandrodnm/edgebot/internal/application/runner"
	"github.com/alejandrodnm/edgebot/internal/domain"
)

// BotHandler exposes the bot's lifecycle controls and manual triggers.
type BotHandler struct {
	runner *runner.Runner
	sim    *sim.Engine
}

func NewBotHandler(r *runner.Runner, engine *sim.Engine) *BotHandler {
	return &BotHandler{runner: r, sim: engine}
}

// RunScan triggers one scan cycle outside the schedule.
// POST /api/run-scan
func (h *BotHandler) RunScan(w http.ResponseWriter, r *http.Request) {
	signals, err := h.runner.ScanOnce(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "scan failed: "+err.Error())
		return
	}

	actionable := 0
	for _, s := range signals {
		if s.Actionable {
			actionable++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signals":    len(signals),
		"actionable": actionable,
	})
}

// SettleTrades triggers one settlement pass outside the schedule.
// POST /api/settle-trades
func (h *BotHandler) SettleTrades(w http.ResponseWriter, r *http.Request) {
	settled, err := h.runner.SettleOnce(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "settlement failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"settled": len(settled),
		"trades":  settled,
	})
}

// simulateTradeRequest is a manual position request. ModelProbability is the
// model's P(YES); for a "no" trade the engine stores the complement.
type simulateTradeRequest struct {
	MarketID         string  `json:"market_id"`
	Question         string  `json:"question"`
	Direction        string  `json:"direction"`
	ModelProbability float64 `json:"model_probability"`
	EntryPrice       float64 `json:"entry_price"`
	Size             float64 `json:"size"`
}

// SimulateTrade opens a manual paper position, bypassing the scanner but not
// the engine's risk checks.
// POST /api/simulate-trade
func (h *BotHandler) SimulateTrade(w http.ResponseWriter, r *http.Request) {
	var req simulateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MarketID == "" {
		writeError(w, http.StatusBadRequest, "market_id is required")
		return
	}
	dir := domain.Direction(req.Direction)
	if dir != domain.DirectionYes && dir != domain.DirectionNo {
		writeError(w, http.StatusBadRequest, "direction must be yes or no")
		return
	}
	if req.ModelProbability < 0 || req.ModelProbability > 1 {
		writeError(w, http.StatusBadRequest, "model_probability must be in [0,1]")
		return
	}

	dirProb := req.ModelProbability
	if dir == domain.DirectionNo {
		dirProb = 1 - req.ModelProbability
	}
	edge := dirProb - req.EntryPrice

	sig := domain.Signal{
		ID:                uuid.NewString(),
		MarketID:          req.MarketID,
		Question:          req.Question,
		Category:          domain.CategoryOther,
		Direction:         dir,
		ModelProbability:  dirProb,
		MarketProbability: req.EntryPrice,
		EntryPrice:        req.EntryPrice,
		Edge:              edge,
		SuggestedSize:     req.Size,
		Actionable:        true,
		Explanation: domain.Explanation{
			ModelProbability:  dirProb,
			MarketProbability: req.EntryPrice,
			Edge:              edge,
			Summary:           "manual trade via API",
		},
		CreatedAt: time.Now().UTC(),
	}

	trade, err := h.sim.Open(r.Context(), sig)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignal) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open trade")
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

// Start resumes the periodic cycles.
// POST /api/bot/start
func (h *BotHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Start(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start bot")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"running": true})
}

// Stop pauses the periodic cycles after any in-flight cycle finishes.
// POST /api/bot/stop
func (h *BotHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Stop(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stop bot")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"running": false})
}

// Reset wipes the simulation back to the starting bankroll.
// POST /api/bot/reset
func (h *BotHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset simulation")
		return
	}
	state, err := h.sim.State(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}
