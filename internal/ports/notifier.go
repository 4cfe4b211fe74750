package ports

import (
	"context"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

// Notifier presents scan and settlement results to the user.
// The console implementation prints formatted tables.
type Notifier interface {
	NotifySignals(ctx context.Context, signals []domain.Signal) error
	NotifySettlements(ctx context.Context, trades []domain.Trade) error
}
