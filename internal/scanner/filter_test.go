package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

func defaultFilter() *Filter {
	return NewFilter(FilterConfig{
		MinEdge:       0.05,
		MinConfidence: 0.30,
		MinLiquidity:  100,
		MaxQuoteAge:   5 * time.Minute,
	})
}

func TestFilterActionable(t *testing.T) {
	f := defaultFilter()

	assert.True(t, f.Actionable(0.08, 0.50, 500, domain.CategoryWeather))
	// Negative edges count by magnitude: a NO bet is still a bet.
	assert.True(t, f.Actionable(-0.08, 0.50, 500, domain.CategoryWeather))
}

func TestFilterRejectsBelowThresholds(t *testing.T) {
	f := defaultFilter()

	assert.False(t, f.Actionable(0.04, 0.50, 500, domain.CategoryWeather), "edge below min")
	assert.False(t, f.Actionable(0.08, 0.20, 500, domain.CategoryWeather), "confidence below min")
	assert.False(t, f.Actionable(0.08, 0.50, 50, domain.CategoryWeather), "liquidity below min")
}

func TestFilterExactThresholdsPass(t *testing.T) {
	f := defaultFilter()
	assert.True(t, f.Actionable(0.05, 0.30, 100, domain.CategoryWeather))
}

func TestFilterZeroEdgeNeverActionable(t *testing.T) {
	// Even with every threshold at zero, no edge means no trade.
	f := NewFilter(FilterConfig{})
	assert.False(t, f.Actionable(0, 1.0, 1e6, domain.CategoryWeather))
}

func TestFilterUnknownLiquidityFailsClosed(t *testing.T) {
	f := defaultFilter()
	assert.False(t, f.Actionable(0.10, 0.90, 0, domain.CategoryWeather))

	// No liquidity floor configured → unknown liquidity is acceptable.
	open := NewFilter(FilterConfig{MinEdge: 0.05})
	assert.True(t, open.Actionable(0.10, 0.90, 0, domain.CategoryWeather))
}

func TestFilterCategoryOverride(t *testing.T) {
	f := NewFilter(FilterConfig{
		MinEdge: 0.05,
		CategoryMinEdge: map[domain.MarketCategory]float64{
			domain.CategoryCrypto: 0.10,
		},
	})

	assert.InDelta(t, 0.10, f.MinEdgeFor(domain.CategoryCrypto), 1e-9)
	assert.InDelta(t, 0.05, f.MinEdgeFor(domain.CategoryWeather), 1e-9)

	assert.False(t, f.Actionable(0.07, 1.0, 0, domain.CategoryCrypto))
	assert.True(t, f.Actionable(0.07, 1.0, 0, domain.CategoryWeather))
}
