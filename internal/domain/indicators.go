package domain

import "math"

// IndicatorSet holds the technical indicators used to estimate short-horizon
// crypto up/down markets. Values come from 1m klines of the underlying asset.
type IndicatorSet struct {
	Source        string  // e.g. "binance/BTCUSDT"
	Price         float64 // last trade price
	RSI           float64 // Wilder RSI(14) over 1m closes, [0,100]
	Momentum1m    float64 // fractional price change over the last 1m
	Momentum5m    float64 // fractional price change over the last 5m
	Momentum15m   float64 // fractional price change over the last 15m
	VWAPDeviation float64 // (price - vwap) / vwap over the window
	SMACrossover  float64 // (sma5 - sma20) / sma20
	Volatility    float64 // stddev of 1m returns over the window
}

// IndicatorWeights are the relative contributions of each indicator family to
// the composite directional score. They should sum to 1.
type IndicatorWeights struct {
	RSI      float64
	Momentum float64
	VWAP     float64
	SMA      float64
	Skew     float64
}

// DefaultIndicatorWeights mirror the tuned production weights: momentum
// dominates on 5-minute horizons, RSI and VWAP deviation provide
// mean-reversion context, market skew folds in the crowd's current lean.
func DefaultIndicatorWeights() IndicatorWeights {
	return IndicatorWeights{
		RSI:      0.20,
		Momentum: 0.35,
		VWAP:     0.20,
		SMA:      0.15,
		Skew:     0.10,
	}
}

// Normalization bounds: the value of each indicator that maps to a full
// directional score of ±1. Momentum and SMA crossover are fractional moves;
// 0.2% in 5 minutes is already a decisive move for BTC.
const (
	momentumFullScale = 0.002
	vwapFullScale     = 0.003
	smaFullScale      = 0.002
)

// EstimateDirection turns an indicator set plus the market's own implied
// probability (yesPrice) into a P(up) estimate.
//
// Each indicator is squashed to a directional score in [-1,1], the weighted
// sum is mapped linearly onto a probability around 0.5, and the result is
// clamped away from the extremes: a 5-minute candle is never a certainty.
// Confidence is the weighted share of indicators agreeing with the composite
// direction, rescaled the same way as ensemble agreement.
func EstimateDirection(ind IndicatorSet, yesPrice float64, w IndicatorWeights) ProbabilityEstimate {
	scores := []struct {
		name   string
		score  float64
		weight float64
	}{
		{"rsi", rsiScore(ind.RSI), w.RSI},
		{"momentum", momentumScore(ind), w.Momentum},
		{"vwap_deviation", clampUnit(ind.VWAPDeviation / vwapFullScale), w.VWAP},
		{"sma_crossover", clampUnit(ind.SMACrossover / smaFullScale), w.SMA},
		{"market_skew", skewScore(yesPrice), w.Skew},
	}

	var composite, totalW float64
	for _, s := range scores {
		composite += s.score * s.weight
		totalW += s.weight
	}
	if totalW > 0 {
		composite /= totalW
	}

	// Map score [-1,1] → probability, damped and clamped to [0.05, 0.95].
	prob := 0.5 + 0.45*composite
	prob = math.Min(0.95, math.Max(0.05, prob))

	// Agreement: weight on the composite's side of zero.
	var agreeW float64
	for _, s := range scores {
		if s.score == 0 || composite == 0 {
			continue
		}
		if (s.score > 0) == (composite > 0) {
			agreeW += s.weight
		}
	}
	confidence := 0.0
	if totalW > 0 && agreeW/totalW > 0.5 {
		confidence = (agreeW/totalW - 0.5) * 2
	}

	factors := make([]Factor, 0, len(scores))
	for _, s := range scores {
		factors = append(factors, Factor{Name: s.name, Value: s.score, Weight: s.weight})
	}

	return ProbabilityEstimate{
		Probability: prob,
		Confidence:  confidence,
		Sources:     []string{ind.Source},
		SampleCount: len(scores),
		Factors:     factors,
	}
}

// rsiScore reads RSI as trend pressure: above 50 favors up. The extremes are
// softened since RSI > 85 on a 1m window says more about the move that already
// happened than the next one.
func rsiScore(rsi float64) float64 {
	return clampUnit((rsi - 50) / 35)
}

// momentumScore blends the three momentum horizons, shortest weighted highest.
func momentumScore(ind IndicatorSet) float64 {
	blended := 0.5*ind.Momentum1m + 0.35*ind.Momentum5m + 0.15*ind.Momentum15m
	return clampUnit(blended / momentumFullScale)
}

// skewScore reads the market's own price as a signal: a YES trading at 0.60
// means the crowd leans up.
func skewScore(yesPrice float64) float64 {
	return clampUnit((yesPrice - 0.5) * 2)
}

func clampUnit(v float64) float64 {
	return math.Min(1, math.Max(-1, v))
}
