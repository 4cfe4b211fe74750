package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

// toDomainMarket converts Gamma metadata into a domain market. Non-binary
// markets (anything other than a Yes/No outcome pair) are dropped.
func toDomainMarket(gm gammaMarket) (domain.Market, bool) {
	if gm.ConditionID == "" || gm.Question == "" {
		return domain.Market{}, false
	}
	if yesIdx := yesOutcomeIndex(gm.Outcomes); yesIdx < 0 {
		return domain.Market{}, false
	}

	category, _ := domain.ClassifyMarket(gm.Question, gm.Description)
	threshold, cond, hasThreshold := domain.ExtractThreshold(gm.Question)

	m := domain.Market{
		ID:           gm.ConditionID,
		Slug:         gm.Slug,
		Question:     gm.Question,
		Category:     category,
		Threshold:    threshold,
		ThresholdDir: cond,
		HasThreshold: hasThreshold,
	}
	if v, err := gm.Volume.Float64(); err == nil {
		m.Volume = v
	}
	if gm.EndDateISO != "" {
		if t, err := time.Parse(time.RFC3339, gm.EndDateISO); err == nil {
			m.EndDate = t
		} else if t, err := time.Parse("2006-01-02", gm.EndDateISO); err == nil {
			m.EndDate = t
		}
	}
	return m, true
}

// toQuote extracts a price snapshot from Gamma metadata.
func toQuote(gm gammaMarket, observedAt time.Time) (domain.MarketQuote, bool) {
	yes, no, ok := parseOutcomePrices(gm.Outcomes, gm.OutcomePrices)
	if !ok {
		return domain.MarketQuote{}, false
	}

	q := domain.MarketQuote{
		MarketID:   gm.ConditionID,
		YesPrice:   yes,
		NoPrice:    no,
		ObservedAt: observedAt,
	}
	if v, err := gm.Liquidity.Float64(); err == nil {
		q.Liquidity = v
	}
	return q, true
}

// parseOutcomePrices decodes Gamma's double-encoded outcome arrays: both
// fields are JSON string arrays serialized into a string, and the price
// order follows the outcome order.
func parseOutcomePrices(outcomes, prices string) (yes, no float64, ok bool) {
	yesIdx := yesOutcomeIndex(outcomes)
	if yesIdx < 0 {
		return 0, 0, false
	}

	var raw []string
	if err := json.Unmarshal([]byte(prices), &raw); err != nil || len(raw) != 2 {
		return 0, 0, false
	}

	parsed := make([]float64, 2)
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 || v > 1 {
			return 0, 0, false
		}
		parsed[i] = v
	}
	return parsed[yesIdx], parsed[1-yesIdx], true
}

// yesOutcomeIndex returns the index of the "Yes" outcome in a two-outcome
// market, or -1 when the market is not a Yes/No pair.
func yesOutcomeIndex(outcomes string) int {
	var names []string
	if err := json.Unmarshal([]byte(outcomes), &names); err != nil || len(names) != 2 {
		return -1
	}
	for i, name := range names {
		if strings.EqualFold(name, "yes") {
			other := names[1-i]
			if strings.EqualFold(other, "no") {
				return i
			}
			return -1
		}
	}
	return -1
}
