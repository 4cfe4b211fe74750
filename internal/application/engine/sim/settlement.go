package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/edgebot/internal/application/events"
	"github.com/alejandrodnm/edgebot/internal/domain"
	"github.com/alejandrodnm/edgebot/internal/ports"
)

// Settle closes one pending trade with the given outcome, applies the pnl to
// the bankroll and appends the equity point. Exactly one settlement per trade
// ever succeeds: the storage guard catches races the in-memory check misses.
func (e *Engine) Settle(ctx context.Context, trade domain.Trade, won bool) (domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settleLocked(ctx, trade, won)
}

func (e *Engine) settleLocked(ctx context.Context, trade domain.Trade, won bool) (domain.Trade, error) {
	if trade.Settled || trade.Result != domain.ResultPending {
		return domain.Trade{}, fmt.Errorf("sim.Settle: trade %d: %w", trade.ID, domain.ErrAlreadySettled)
	}

	pnl := domain.SettlementPnL(trade.Size, trade.EntryPrice, won)
	result := domain.ResultLoss
	if won {
		result = domain.ResultWin
	}
	settledAt := e.now().UTC()

	// The storage guard is the source of truth; state only moves after it.
	if err := e.store.SettleTrade(ctx, trade.ID, result, pnl, settledAt); err != nil {
		return domain.Trade{}, fmt.Errorf("sim.Settle: trade %d: %w", trade.ID, err)
	}

	state, err := e.store.GetState(ctx)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("sim.Settle: load state: %w", err)
	}
	state.Bankroll += pnl
	state.TotalPnL += pnl
	state.TotalTrades++
	if won {
		state.WinningTrades++
	}
	if err := e.store.SaveState(ctx, state); err != nil {
		return domain.Trade{}, fmt.Errorf("sim.Settle: save state: %w", err)
	}

	if err := e.store.AppendEquityPoint(ctx, domain.EquityPoint{
		Timestamp: settledAt,
		PnL:       pnl,
		Bankroll:  state.Bankroll,
		TradeID:   trade.ID,
	}); err != nil {
		return domain.Trade{}, fmt.Errorf("sim.Settle: append equity: %w", err)
	}

	trade.Settled = true
	trade.Result = result
	trade.PnL = &pnl
	trade.SettledAt = &settledAt

	slog.Info("sim: trade settled",
		"trade_id", trade.ID,
		"result", result,
		"pnl", fmt.Sprintf("%+.2f", pnl),
		"bankroll", fmt.Sprintf("%.2f", state.Bankroll),
	)
	e.publish(events.TypeSettle, fmt.Sprintf("trade %d settled %s, pnl %+.2f", trade.ID, result, pnl),
		map[string]any{"trade_id": trade.ID, "result": string(result), "pnl": pnl, "bankroll": state.Bankroll})

	return trade, nil
}

// SettlePending asks the resolver about every pending trade and settles the
// ones whose market has resolved. Per-trade failures are logged and skipped.
func (e *Engine) SettlePending(ctx context.Context, resolver ports.ResolutionProvider) ([]domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, err := e.store.GetPendingTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("sim.SettlePending: %w", err)
	}

	var settled []domain.Trade
	for _, trade := range pending {
		res, err := resolver.FetchResolution(ctx, trade.MarketID)
		if err != nil {
			slog.Warn("sim: resolution fetch failed", "trade_id", trade.ID, "market", trade.MarketID, "err", err)
			continue
		}
		if !res.Resolved {
			continue
		}

		done, err := e.settleLocked(ctx, trade, res.Won(trade.Direction))
		if err != nil {
			if !errors.Is(err, domain.ErrAlreadySettled) {
				slog.Warn("sim: settlement failed", "trade_id", trade.ID, "err", err)
			}
			continue
		}
		settled = append(settled, done)
	}

	if len(settled) > 0 {
		slog.Info("sim: settlement pass complete", "settled", len(settled), "pending", len(pending)-len(settled))
	}
	return settled, nil
}
