// Package sim is the paper-trading engine: it turns actionable signals into
// simulated positions against a virtual bankroll and settles them when the
// venue resolves. All bankroll mutations go through one mutex; settlement is
// at-most-once, enforced both here and by the storage layer.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/edgebot/internal/application/events"
	"github.com/alejandrodnm/edgebot/internal/domain"
	"github.com/alejandrodnm/edgebot/internal/ports"
)

// Config holds the engine's risk caps.
type Config struct {
	StartingBankroll float64
	MinTradeSize     float64 // stakes below this are noise, skip them
	MaxTradesPerScan int     // new positions per scan cycle
	MaxPendingTrades int     // total unsettled positions
}

// Engine opens and settles simulated trades.
type Engine struct {
	cfg   Config
	store ports.TradeStorage
	bus   *events.Bus
	mu    sync.Mutex
	now   func() time.Time
}

func New(cfg Config, store ports.TradeStorage, bus *events.Bus) *Engine {
	return &Engine{
		cfg:   cfg,
		store: store,
		bus:   bus,
		now:   time.Now,
	}
}

// Open converts one actionable signal into a pending trade. The stake is the
// signal's suggested size; signals that carry no stake are invalid here.
func (e *Engine) Open(ctx context.Context, sig domain.Signal) (domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openLocked(ctx, sig)
}

func (e *Engine) openLocked(ctx context.Context, sig domain.Signal) (domain.Trade, error) {
	if !sig.Actionable || sig.SuggestedSize <= 0 {
		return domain.Trade{}, fmt.Errorf("sim.Open: not actionable: %w", domain.ErrInvalidSignal)
	}
	if sig.EntryPrice <= 0 || sig.EntryPrice >= 1 {
		return domain.Trade{}, fmt.Errorf("sim.Open: entry price %.4f: %w", sig.EntryPrice, domain.ErrInvalidSignal)
	}
	if sig.SuggestedSize < e.cfg.MinTradeSize {
		return domain.Trade{}, fmt.Errorf("sim.Open: size %.2f below minimum %.2f: %w",
			sig.SuggestedSize, e.cfg.MinTradeSize, domain.ErrInvalidSignal)
	}

	state, err := e.store.GetState(ctx)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("sim.Open: load state: %w", err)
	}
	if sig.SuggestedSize > state.Bankroll {
		return domain.Trade{}, fmt.Errorf("sim.Open: size %.2f exceeds bankroll %.2f: %w",
			sig.SuggestedSize, state.Bankroll, domain.ErrInvalidSignal)
	}

	open, err := e.store.HasOpenTrade(ctx, sig.MarketID)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("sim.Open: check open trade: %w", err)
	}
	if open {
		return domain.Trade{}, fmt.Errorf("sim.Open: market %s already has a pending trade: %w",
			sig.MarketID, domain.ErrInvalidSignal)
	}

	trade := domain.Trade{
		MarketID:          sig.MarketID,
		Question:          sig.Question,
		Category:          sig.Category,
		Direction:         sig.Direction,
		EntryPrice:        sig.EntryPrice,
		Size:              sig.SuggestedSize,
		ModelProbability:  sig.ModelProbability,
		MarketProbability: sig.MarketProbability,
		EdgeAtEntry:       sig.Edge,
		OpenedAt:          e.now().UTC(),
		Result:            domain.ResultPending,
	}

	id, err := e.store.SaveTrade(ctx, trade)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("sim.Open: save trade: %w", err)
	}
	trade.ID = id

	slog.Info("sim: trade opened",
		"trade_id", id,
		"market", sig.MarketID,
		"direction", sig.Direction,
		"entry", sig.EntryPrice,
		"size", fmt.Sprintf("%.2f", sig.SuggestedSize),
		"edge", fmt.Sprintf("%.4f", sig.Edge),
	)
	e.publish(events.TypeTrade, fmt.Sprintf("opened %s $%.2f @ %.2f on %s",
		trade.Direction, trade.Size, trade.EntryPrice,
		domain.TruncateQuestion(trade.Question, trade.MarketID, 60)),
		map[string]any{"trade_id": id, "market_id": trade.MarketID, "size": trade.Size})

	return trade, nil
}

// OpenBatch opens trades for a scan cycle's actionable signals, best edge
// first, respecting the per-scan and total-pending caps. Signals that fail
// individual validation are skipped, not fatal.
func (e *Engine) OpenBatch(ctx context.Context, signals []domain.Signal) ([]domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, err := e.store.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("sim.OpenBatch: count pending: %w", err)
	}

	var opened []domain.Trade
	for _, sig := range signals {
		if !sig.Actionable {
			continue
		}
		if e.cfg.MaxTradesPerScan > 0 && len(opened) >= e.cfg.MaxTradesPerScan {
			break
		}
		if e.cfg.MaxPendingTrades > 0 && pending+len(opened) >= e.cfg.MaxPendingTrades {
			slog.Info("sim: pending cap reached", "pending", pending+len(opened))
			break
		}

		trade, err := e.openLocked(ctx, sig)
		if err != nil {
			slog.Debug("sim: signal skipped", "market", sig.MarketID, "err", err)
			continue
		}
		opened = append(opened, trade)
	}
	return opened, nil
}

func (e *Engine) publish(typ events.Type, msg string, data map[string]any) {
	if e.bus != nil {
		e.bus.Publish(typ, msg, data)
	}
}

// State returns the current bankroll state.
func (e *Engine) State(ctx context.Context) (domain.BankrollState, error) {
	return e.store.GetState(ctx)
}

// SetRunning flips the scheduler gate in persistent state.
func (e *Engine) SetRunning(ctx context.Context, running bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.store.GetState(ctx)
	if err != nil {
		return fmt.Errorf("sim.SetRunning: %w", err)
	}
	state.IsRunning = running
	if err := e.store.SaveState(ctx, state); err != nil {
		return fmt.Errorf("sim.SetRunning: %w", err)
	}
	return nil
}

// MarkRun records the time of the latest completed scan cycle.
func (e *Engine) MarkRun(ctx context.Context, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.store.GetState(ctx)
	if err != nil {
		return fmt.Errorf("sim.MarkRun: %w", err)
	}
	state.LastRun = &at
	if err := e.store.SaveState(ctx, state); err != nil {
		return fmt.Errorf("sim.MarkRun: %w", err)
	}
	return nil
}

// Trades lists stored trades, newest first.
func (e *Engine) Trades(ctx context.Context, limit int, result domain.TradeResult) ([]domain.Trade, error) {
	return e.store.GetTrades(ctx, limit, result)
}

// PendingCount returns the number of unsettled positions.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	return e.store.CountPending(ctx)
}

// EquityCurve returns equity points in settlement order.
func (e *Engine) EquityCurve(ctx context.Context) ([]domain.EquityPoint, error) {
	return e.store.GetEquityCurve(ctx)
}

// Reset wipes all trades and equity and restores the starting bankroll.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Reset(ctx, e.cfg.StartingBankroll); err != nil {
		return fmt.Errorf("sim.Reset: %w", err)
	}
	slog.Info("sim: state reset", "bankroll", e.cfg.StartingBankroll)
	e.publish(events.TypeInfo, fmt.Sprintf("simulation reset, bankroll $%.2f", e.cfg.StartingBankroll), nil)
	return nil
}
