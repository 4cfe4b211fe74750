package domain

import "time"

// MarketQuote is an observed snapshot of a binary market's prices.
// YesPrice and NoPrice are in [0,1]; in a liquid book they sum to ~1.
type MarketQuote struct {
	MarketID   string
	YesPrice   float64
	NoPrice    float64
	Liquidity  float64 // USD available near the top of book; 0 = unknown
	ObservedAt time.Time
}

// ImpliedNo returns the NO price, deriving it from YES when the feed
// did not carry one.
func (q MarketQuote) ImpliedNo() float64 {
	if q.NoPrice > 0 {
		return q.NoPrice
	}
	return 1 - q.YesPrice
}

// PriceFor returns the entry price for a given bet direction.
func (q MarketQuote) PriceFor(dir Direction) float64 {
	if dir == DirectionNo {
		return q.ImpliedNo()
	}
	return q.YesPrice
}

// Stale reports whether the quote is older than maxAge at the given instant.
// Stale quotes are treated as missing data, never traded on.
func (q MarketQuote) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(q.ObservedAt) > maxAge
}
