package ports

import (
	"context"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

// MarketProvider lists the open binary markets eligible for scanning.
type MarketProvider interface {
	FetchMarkets(ctx context.Context) ([]domain.Market, error)
}

// QuoteProvider fetches current price snapshots for a set of markets.
// Markets missing from the result simply had no quote available.
type QuoteProvider interface {
	FetchQuotes(ctx context.Context, marketIDs []string) (map[string]domain.MarketQuote, error)
}

// ForecastProvider fetches ensemble forecast samples for a threshold market.
// Returns domain.ErrInsufficientData (wrapped) when it has nothing usable.
type ForecastProvider interface {
	FetchSamples(ctx context.Context, m domain.Market) ([]domain.ForecastSample, error)
}

// IndicatorProvider fetches the current technical indicator set for the
// asset underlying short-horizon crypto markets.
type IndicatorProvider interface {
	FetchIndicators(ctx context.Context) (domain.IndicatorSet, error)
}

// ResolutionProvider reports a market's final outcome once the venue
// resolves it.
type ResolutionProvider interface {
	FetchResolution(ctx context.Context, marketID string) (domain.Resolution, error)
}
