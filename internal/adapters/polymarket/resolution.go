package polymarket

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

// Outcome prices pin to the extremes once a market resolves. Anything in
// between on a closed market means resolution is still disputed upstream,
// and we wait rather than guess.
const resolvedPriceBound = 0.99

// FetchResolution reports whether a market has resolved and which side won.
func (c *Client) FetchResolution(ctx context.Context, marketID string) (domain.Resolution, error) {
	url := fmt.Sprintf("%s%s?condition_ids=%s&limit=1", c.base, gammaMarketsPath, marketID)

	var resp gammaMarketsResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return domain.Resolution{}, fmt.Errorf("polymarket.FetchResolution: %w", err)
	}
	if len(resp) == 0 {
		return domain.Resolution{}, fmt.Errorf("polymarket.FetchResolution: market %s not found", marketID)
	}

	gm := resp[0]
	res := domain.Resolution{MarketID: marketID}
	if !gm.Closed {
		return res, nil
	}

	yes, _, ok := parseOutcomePrices(gm.Outcomes, gm.OutcomePrices)
	if !ok {
		return res, nil
	}
	switch {
	case yes >= resolvedPriceBound:
		res.Resolved = true
		res.YesWon = true
	case yes <= 1-resolvedPriceBound:
		res.Resolved = true
		res.YesWon = false
	}
	return res, nil
}
