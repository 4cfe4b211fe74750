package scanner

import (
	"time"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

// FilterConfig holds the actionability thresholds. CategoryMinEdge overrides
// MinEdge per market category (noisier categories want a wider margin).
type FilterConfig struct {
	MinEdge         float64
	MinConfidence   float64
	MinLiquidity    float64
	MaxQuoteAge     time.Duration
	CategoryMinEdge map[domain.MarketCategory]float64
}

// Filter decides whether a signal is actionable. It is stateless: same
// inputs, same verdict.
type Filter struct {
	cfg FilterConfig
}

func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Actionable applies the three thresholds. A zero edge is never actionable
// regardless of configuration, and unknown liquidity (0) fails closed
// whenever a liquidity floor is set.
func (f *Filter) Actionable(edge, confidence, liquidity float64, cat domain.MarketCategory) bool {
	if edge == 0 {
		return false
	}
	if abs(edge) < f.MinEdgeFor(cat) {
		return false
	}
	if confidence < f.cfg.MinConfidence {
		return false
	}
	if f.cfg.MinLiquidity > 0 && liquidity < f.cfg.MinLiquidity {
		return false
	}
	return true
}

// MinEdgeFor returns the effective min-edge threshold for a category.
func (f *Filter) MinEdgeFor(cat domain.MarketCategory) float64 {
	if v, ok := f.cfg.CategoryMinEdge[cat]; ok {
		return v
	}
	return f.cfg.MinEdge
}

// MaxQuoteAge is the freshness bound quotes must satisfy; zero disables it.
func (f *Filter) MaxQuoteAge() time.Duration {
	return f.cfg.MaxQuoteAge
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
