package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func neutralIndicators() IndicatorSet {
	return IndicatorSet{
		Source: "binance/BTCUSDT",
		Price:  60000,
		RSI:    50,
	}
}

func TestEstimateDirectionNeutralIsCoinFlip(t *testing.T) {
	// All indicators flat and the market at 0.50 → no directional signal.
	est := EstimateDirection(neutralIndicators(), 0.50, DefaultIndicatorWeights())

	assert.InDelta(t, 0.5, est.Probability, 1e-9)
	assert.InDelta(t, 0.0, est.Confidence, 1e-9)
	assert.Equal(t, 5, est.SampleCount)
}

func TestEstimateDirectionMomentumMonotonic(t *testing.T) {
	// Raising 5m momentum must never lower P(up).
	w := DefaultIndicatorWeights()
	prev := 0.0
	for _, m := range []float64{-0.003, -0.001, 0, 0.0005, 0.001, 0.003} {
		ind := neutralIndicators()
		ind.Momentum5m = m
		p := EstimateDirection(ind, 0.50, w).Probability
		if prev != 0 {
			assert.GreaterOrEqual(t, p, prev, "momentum %v", m)
		}
		prev = p
	}
}

func TestEstimateDirectionClampedAwayFromCertainty(t *testing.T) {
	// Every indicator maxed out still never exceeds 0.95.
	ind := IndicatorSet{
		RSI:           100,
		Momentum1m:    0.05,
		Momentum5m:    0.05,
		Momentum15m:   0.05,
		VWAPDeviation: 0.05,
		SMACrossover:  0.05,
	}
	est := EstimateDirection(ind, 0.99, DefaultIndicatorWeights())

	assert.LessOrEqual(t, est.Probability, 0.95)
	// Full agreement → full confidence.
	assert.InDelta(t, 1.0, est.Confidence, 1e-9)
}

func TestEstimateDirectionDisagreementLowersConfidence(t *testing.T) {
	// Momentum up (weight .35) vs RSI down + VWAP down (weights .20+.20):
	// composite follows the bigger weighted side but confidence drops.
	ind := neutralIndicators()
	ind.Momentum1m = 0.004
	ind.Momentum5m = 0.004
	ind.RSI = 20
	ind.VWAPDeviation = -0.01

	est := EstimateDirection(ind, 0.50, DefaultIndicatorWeights())
	assert.Less(t, est.Confidence, 0.5)
}

func TestDefaultIndicatorWeightsSumToOne(t *testing.T) {
	w := DefaultIndicatorWeights()
	assert.InDelta(t, 1.0, w.RSI+w.Momentum+w.VWAP+w.SMA+w.Skew, 1e-9)
}
