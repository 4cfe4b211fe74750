package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

func sampleGammaMarket() gammaMarket {
	return gammaMarket{
		ConditionID:   "0xabc",
		Question:      "Will Bitcoin be above $100,000 on December 31?",
		Slug:          "btc-100k",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.45","0.55"]`,
		Liquidity:     json.Number("12500.5"),
		Volume:        json.Number("98000"),
		EndDateISO:    "2026-12-31T00:00:00Z",
		Active:        true,
	}
}

func TestToDomainMarket(t *testing.T) {
	m, ok := toDomainMarket(sampleGammaMarket())
	require.True(t, ok)

	assert.Equal(t, "0xabc", m.ID)
	assert.Equal(t, domain.CategoryCrypto, m.Category)
	require.True(t, m.HasThreshold)
	assert.InDelta(t, 100000.0, m.Threshold, 1e-9)
	assert.Equal(t, domain.ConditionAbove, m.ThresholdDir)
	assert.InDelta(t, 98000.0, m.Volume, 1e-9)
	assert.Equal(t, 2026, m.EndDate.Year())
}

func TestToDomainMarketRejectsNonBinary(t *testing.T) {
	gm := sampleGammaMarket()
	gm.Outcomes = `["Trump","Biden","Other"]`
	_, ok := toDomainMarket(gm)
	assert.False(t, ok)

	gm = sampleGammaMarket()
	gm.Outcomes = `["Over","Under"]`
	_, ok = toDomainMarket(gm)
	assert.False(t, ok)
}

func TestToQuote(t *testing.T) {
	now := time.Now()
	q, ok := toQuote(sampleGammaMarket(), now)
	require.True(t, ok)

	assert.InDelta(t, 0.45, q.YesPrice, 1e-9)
	assert.InDelta(t, 0.55, q.NoPrice, 1e-9)
	assert.InDelta(t, 12500.5, q.Liquidity, 1e-9)
	assert.Equal(t, now, q.ObservedAt)
}

func TestParseOutcomePricesReversedOrder(t *testing.T) {
	// Some markets list No first; prices follow the outcome order.
	yes, no, ok := parseOutcomePrices(`["No","Yes"]`, `["0.70","0.30"]`)
	require.True(t, ok)
	assert.InDelta(t, 0.30, yes, 1e-9)
	assert.InDelta(t, 0.70, no, 1e-9)
}

func TestParseOutcomePricesRejectsGarbage(t *testing.T) {
	cases := []struct{ outcomes, prices string }{
		{`["Yes","No"]`, `not json`},
		{`["Yes","No"]`, `["0.45"]`},
		{`["Yes","No"]`, `["1.5","0.5"]`}, // out of [0,1]
		{`["Yes","No"]`, `["abc","0.5"]`},
		{`[]`, `["0.45","0.55"]`},
	}
	for _, tc := range cases {
		_, _, ok := parseOutcomePrices(tc.outcomes, tc.prices)
		assert.False(t, ok, "outcomes=%s prices=%s", tc.outcomes, tc.prices)
	}
}
