// Package runner is the orchestrator: it owns the periodic scan, settlement
// and calibration cycles, gates them on the persisted is_running flag, and
// feeds the event log. Manual API triggers reuse the same cycle functions.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/edgebot/internal/application/calibrate"
	"github.com/alejandrodnm/edgebot/internal/application/engine/sim"
	"github.com/alejandrodnm/edgebot/internal/application/events"
	"github.com/alejandrodnm/edgebot/internal/domain"
	"github.com/alejandrodnm/edgebot/internal/ports"
	"github.com/alejandrodnm/edgebot/internal/scanner"
)

// Config holds the cycle intervals.
type Config struct {
	ScanInterval      time.Duration
	SettleInterval    time.Duration
	CalibrateInterval time.Duration
	HeartbeatInterval time.Duration
}

func (c *Config) setDefaults() {
	if c.ScanInterval <= 0 {
		c.ScanInterval = 90 * time.Second
	}
	if c.SettleInterval <= 0 {
		c.SettleInterval = 120 * time.Second
	}
	if c.CalibrateInterval <= 0 {
		c.CalibrateInterval = 15 * time.Minute
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 60 * time.Second
	}
}

// Runner drives the bot's periodic cycles.
type Runner struct {
	cfg      Config
	scanner  *scanner.Scanner
	sim      *sim.Engine
	cal      *calibrate.Engine
	resolver ports.ResolutionProvider
	notifier ports.Notifier
	bus      *events.Bus

	mu          sync.Mutex
	lastSignals []domain.Signal
}

func New(
	cfg Config,
	sc *scanner.Scanner,
	simEngine *sim.Engine,
	cal *calibrate.Engine,
	resolver ports.ResolutionProvider,
	notifier ports.Notifier,
	bus *events.Bus,
) *Runner {
	cfg.setDefaults()
	return &Runner{
		cfg:      cfg,
		scanner:  sc,
		sim:      simEngine,
		cal:      cal,
		resolver: resolver,
		notifier: notifier,
		bus:      bus,
	}
}

// Run blocks until the context is cancelled, firing cycles on their tickers.
// The is_running gate is checked before each cycle, never mid-cycle: a stop
// lets in-flight work finish and suppresses the next tick.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("runner: starting",
		"scan_interval", r.cfg.ScanInterval,
		"settle_interval", r.cfg.SettleInterval,
		"calibrate_interval", r.cfg.CalibrateInterval,
	)
	r.bus.Publish(events.TypeInfo, "bot started", nil)

	scanTick := time.NewTicker(r.cfg.ScanInterval)
	settleTick := time.NewTicker(r.cfg.SettleInterval)
	calTick := time.NewTicker(r.cfg.CalibrateInterval)
	heartbeat := time.NewTicker(r.cfg.HeartbeatInterval)
	defer scanTick.Stop()
	defer settleTick.Stop()
	defer calTick.Stop()
	defer heartbeat.Stop()

	// First scan right away instead of waiting a full interval.
	if r.running(ctx) {
		if _, err := r.ScanOnce(ctx); err != nil {
			slog.Error("runner: scan cycle failed", "err", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("runner: stopped")
			return nil
		case <-scanTick.C:
			if !r.running(ctx) {
				continue
			}
			if _, err := r.ScanOnce(ctx); err != nil {
				slog.Error("runner: scan cycle failed", "err", err)
				r.bus.Publish(events.TypeError, fmt.Sprintf("scan failed: %v", err), nil)
			}
		case <-settleTick.C:
			if !r.running(ctx) {
				continue
			}
			if _, err := r.SettleOnce(ctx); err != nil {
				slog.Error("runner: settlement cycle failed", "err", err)
				r.bus.Publish(events.TypeError, fmt.Sprintf("settlement failed: %v", err), nil)
			}
		case <-calTick.C:
			if !r.running(ctx) {
				continue
			}
			if _, err := r.cal.Run(ctx); err != nil {
				slog.Error("runner: calibration failed", "err", err)
			}
		case <-heartbeat.C:
			r.emitHeartbeat(ctx)
		}
	}
}

// ScanOnce runs one scan cycle: evaluate markets, auto-open trades for
// actionable signals, notify, record the run time.
func (r *Runner) ScanOnce(ctx context.Context) ([]domain.Signal, error) {
	signals, err := r.scanner.Cycle(ctx)
	if err != nil {
		return nil, fmt.Errorf("runner.ScanOnce: %w", err)
	}

	r.mu.Lock()
	r.lastSignals = signals
	r.mu.Unlock()

	actionable := 0
	for _, sig := range signals {
		if sig.Actionable {
			actionable++
			r.bus.Publish(events.TypeSignal, sig.Explanation.Summary, map[string]any{
				"signal_id": sig.ID,
				"market_id": sig.MarketID,
				"edge":      sig.Edge,
				"size":      sig.SuggestedSize,
			})
		}
	}
	r.bus.Publish(events.TypeScan,
		fmt.Sprintf("scan complete: %d signals, %d actionable", len(signals), actionable), nil)

	opened, err := r.sim.OpenBatch(ctx, signals)
	if err != nil {
		return signals, fmt.Errorf("runner.ScanOnce: open trades: %w", err)
	}
	if len(opened) > 0 {
		slog.Info("runner: trades opened", "count", len(opened))
	}

	if r.notifier != nil {
		if err := r.notifier.NotifySignals(ctx, signals); err != nil {
			slog.Warn("runner: notifier error", "err", err)
		}
	}

	if err := r.sim.MarkRun(ctx, time.Now().UTC()); err != nil {
		slog.Warn("runner: mark run failed", "err", err)
	}
	return signals, nil
}

// SettleOnce runs one settlement pass over pending trades.
func (r *Runner) SettleOnce(ctx context.Context) ([]domain.Trade, error) {
	settled, err := r.sim.SettlePending(ctx, r.resolver)
	if err != nil {
		return nil, fmt.Errorf("runner.SettleOnce: %w", err)
	}
	if len(settled) > 0 && r.notifier != nil {
		if err := r.notifier.NotifySettlements(ctx, settled); err != nil {
			slog.Warn("runner: notifier error", "err", err)
		}
	}
	return settled, nil
}

// CalibrateOnce runs one calibration pass.
func (r *Runner) CalibrateOnce(ctx context.Context) (domain.CalibrationReport, error) {
	return r.cal.Run(ctx)
}

// Start resumes the periodic cycles.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.sim.SetRunning(ctx, true); err != nil {
		return fmt.Errorf("runner.Start: %w", err)
	}
	r.bus.Publish(events.TypeInfo, "bot resumed", nil)
	return nil
}

// Stop pauses the periodic cycles after any in-flight cycle finishes.
func (r *Runner) Stop(ctx context.Context) error {
	if err := r.sim.SetRunning(ctx, false); err != nil {
		return fmt.Errorf("runner.Stop: %w", err)
	}
	r.bus.Publish(events.TypeInfo, "bot paused", nil)
	return nil
}

// Reset wipes the simulation and clears the signal snapshot.
func (r *Runner) Reset(ctx context.Context) error {
	if err := r.sim.Reset(ctx); err != nil {
		return fmt.Errorf("runner.Reset: %w", err)
	}
	r.mu.Lock()
	r.lastSignals = nil
	r.mu.Unlock()
	return nil
}

// Signals returns a copy of the latest scan cycle's signals.
func (r *Runner) Signals() []domain.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Signal(nil), r.lastSignals...)
}

func (r *Runner) running(ctx context.Context) bool {
	state, err := r.sim.State(ctx)
	if err != nil {
		slog.Error("runner: state read failed", "err", err)
		return false
	}
	return state.IsRunning
}

func (r *Runner) emitHeartbeat(ctx context.Context) {
	state, err := r.sim.State(ctx)
	if err != nil {
		return
	}
	r.bus.Publish(events.TypeInfo, "heartbeat", map[string]any{
		"bankroll":  state.Bankroll,
		"total_pnl": state.TotalPnL,
		"running":   state.IsRunning,
	})
}
