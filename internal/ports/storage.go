package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

// StateReader exposes the simulator's aggregate state to read-only consumers
// (the scanner sizes positions off the live bankroll).
type StateReader interface {
	GetState(ctx context.Context) (domain.BankrollState, error)
}

// TradeStorage persists trades, bankroll state and the equity curve.
// Implementations must enforce at-most-once settlement: SettleTrade on an
// already-settled trade returns domain.ErrAlreadySettled and changes nothing.
type TradeStorage interface {
	StateReader

	SaveTrade(ctx context.Context, t domain.Trade) (int64, error)
	SettleTrade(ctx context.Context, id int64, result domain.TradeResult, pnl float64, settledAt time.Time) error
	GetTrade(ctx context.Context, id int64) (domain.Trade, error)
	GetTrades(ctx context.Context, limit int, result domain.TradeResult) ([]domain.Trade, error)
	GetPendingTrades(ctx context.Context) ([]domain.Trade, error)
	GetSettledTrades(ctx context.Context) ([]domain.Trade, error)
	CountPending(ctx context.Context) (int, error)
	HasOpenTrade(ctx context.Context, marketID string) (bool, error)

	SaveState(ctx context.Context, s domain.BankrollState) error
	AppendEquityPoint(ctx context.Context, p domain.EquityPoint) error
	GetEquityCurve(ctx context.Context) ([]domain.EquityPoint, error)

	// Reset wipes trades and equity and restores the starting bankroll.
	Reset(ctx context.Context, startingBankroll float64) error

	Close() error
}
