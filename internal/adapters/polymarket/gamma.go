package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

const (
	gammaMarketsPath  = "/markets"
	gammaConditionMax = 20  // condition_ids per request
	marketFetchLimit  = 100 // open markets per scan
)

// FetchMarkets lists open binary markets, most traded first.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	url := fmt.Sprintf("%s%s?active=true&closed=false&limit=%d&order=volume24hr&ascending=false",
		c.base, gammaMarketsPath, marketFetchLimit)

	var resp gammaMarketsResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("polymarket.FetchMarkets: %w", err)
	}

	markets := make([]domain.Market, 0, len(resp))
	for _, gm := range resp {
		m, ok := toDomainMarket(gm)
		if !ok {
			continue
		}
		markets = append(markets, m)
	}

	slog.Debug("polymarket: markets fetched", "total", len(resp), "binary", len(markets))
	return markets, nil
}

// FetchQuotes fetches current outcome prices for the given markets in batches.
// Markets Gamma cannot price are absent from the result, not an error.
func (c *Client) FetchQuotes(ctx context.Context, marketIDs []string) (map[string]domain.MarketQuote, error) {
	quotes := make(map[string]domain.MarketQuote, len(marketIDs))

	for i := 0; i < len(marketIDs); i += gammaConditionMax {
		end := i + gammaConditionMax
		if end > len(marketIDs) {
			end = len(marketIDs)
		}
		batch := marketIDs[i:end]

		url := fmt.Sprintf("%s%s?condition_ids=%s&limit=%d",
			c.base, gammaMarketsPath, strings.Join(batch, ","), gammaConditionMax)

		var resp gammaMarketsResponse
		if err := c.get(ctx, url, &resp); err != nil {
			slog.Warn("polymarket: quote batch failed",
				"batch", fmt.Sprintf("%d-%d", i, end), "err", err)
			continue
		}

		observedAt := c.now()
		for _, gm := range resp {
			q, ok := toQuote(gm, observedAt)
			if !ok {
				continue
			}
			quotes[gm.ConditionID] = q
		}
	}
	return quotes, nil
}
