// Package calibrate periodically scores settled trades against the model
// probabilities they were opened with. Its output is advisory: findings are
// reported, never applied to the live thresholds.
package calibrate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

// TradeSource is the slice of storage calibration needs.
type TradeSource interface {
	GetSettledTrades(ctx context.Context) ([]domain.Trade, error)
}

// Config holds the calibration tunables.
type Config struct {
	Buckets    int     // probability buckets over [0,1]
	Margin     float64 // |predicted - realized| gap that triggers advice
	MinSamples int     // bucket size below which no advice is produced
}

// Engine runs calibration passes and caches the latest report.
type Engine struct {
	cfg   Config
	store TradeSource

	mu   sync.Mutex
	last *domain.CalibrationReport
}

func New(cfg Config, store TradeSource) *Engine {
	if cfg.Buckets <= 0 {
		cfg.Buckets = 10
	}
	if cfg.Margin <= 0 {
		cfg.Margin = 0.10
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 20
	}
	return &Engine{cfg: cfg, store: store}
}

// Run executes one calibration pass over all settled trades.
func (e *Engine) Run(ctx context.Context) (domain.CalibrationReport, error) {
	trades, err := e.store.GetSettledTrades(ctx)
	if err != nil {
		return domain.CalibrationReport{}, fmt.Errorf("calibrate.Run: %w", err)
	}

	report := domain.Calibrate(trades, e.cfg.Buckets, e.cfg.Margin, e.cfg.MinSamples)

	e.mu.Lock()
	e.last = &report
	e.mu.Unlock()

	slog.Info("calibrate: pass complete",
		"samples", report.SampleCount,
		"brier", fmt.Sprintf("%.4f", report.BrierScore),
		"advice", len(report.Advice),
	)
	for _, adv := range report.Advice {
		slog.Warn("calibrate: "+adv.Message, "action", adv.Action, "gap", fmt.Sprintf("%+.2f", adv.Gap))
	}
	return report, nil
}

// Last returns the most recent report, or nil before the first pass.
func (e *Engine) Last() *domain.CalibrationReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}
