package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func settledTrade(prob float64, won bool) Trade {
	result := ResultLoss
	if won {
		result = ResultWin
	}
	return Trade{ModelProbability: prob, Settled: true, Result: result}
}

func TestCalibrateBrierScore(t *testing.T) {
	// Two trades: p=0.8 won → (0.8-1)^2 = 0.04; p=0.6 lost → 0.36.
	// Brier = (0.04 + 0.36) / 2 = 0.20.
	trades := []Trade{
		settledTrade(0.8, true),
		settledTrade(0.6, false),
	}

	rep := Calibrate(trades, 10, 0.10, 1)
	assert.InDelta(t, 0.20, rep.BrierScore, 1e-9)
	assert.Equal(t, 2, rep.SampleCount)
}

func TestCalibratePerfectPredictionIsZero(t *testing.T) {
	trades := []Trade{settledTrade(1.0, true), settledTrade(0.0, false)}
	rep := Calibrate(trades, 10, 0.10, 1)
	assert.Zero(t, rep.BrierScore)
}

func TestCalibrateIgnoresPending(t *testing.T) {
	trades := []Trade{
		settledTrade(0.7, true),
		{ModelProbability: 0.7, Result: ResultPending},
	}
	rep := Calibrate(trades, 10, 0.10, 1)
	assert.Equal(t, 1, rep.SampleCount)
}

func TestCalibrateBuckets(t *testing.T) {
	// Four trades at p=0.75, two won → bucket [0.7,0.8):
	// predicted avg 0.75, actual rate 0.50.
	trades := []Trade{
		settledTrade(0.75, true),
		settledTrade(0.75, true),
		settledTrade(0.75, false),
		settledTrade(0.75, false),
	}

	rep := Calibrate(trades, 10, 0.10, 1)
	b := rep.Buckets[7]
	assert.Equal(t, 4, b.Count)
	assert.InDelta(t, 0.75, b.PredictedAvg, 1e-9)
	assert.InDelta(t, 0.50, b.ActualRate, 1e-9)
	assert.InDelta(t, 0.25, b.Gap(), 1e-9)
}

func TestCalibrateOverconfidentAdvice(t *testing.T) {
	// Predicted 0.75, realized 0.50: gap 0.25 > margin 0.10 → raise min edge.
	trades := []Trade{
		settledTrade(0.75, true),
		settledTrade(0.75, true),
		settledTrade(0.75, false),
		settledTrade(0.75, false),
	}

	rep := Calibrate(trades, 10, 0.10, 4)
	if assert.Len(t, rep.Advice, 1) {
		assert.Equal(t, AdviceRaiseMinEdge, rep.Advice[0].Action)
		assert.InDelta(t, 0.25, rep.Advice[0].Gap, 1e-9)
	}
}

func TestCalibrateUnderconfidentAdvice(t *testing.T) {
	// Predicted 0.55 but every trade won → gap -0.45 → lower min edge.
	trades := []Trade{
		settledTrade(0.55, true),
		settledTrade(0.55, true),
		settledTrade(0.55, true),
	}

	rep := Calibrate(trades, 10, 0.10, 3)
	if assert.Len(t, rep.Advice, 1) {
		assert.Equal(t, AdviceLowerMinEdge, rep.Advice[0].Action)
	}
}

func TestCalibrateSmallBucketsStaySilent(t *testing.T) {
	// Gap is huge but the bucket has fewer than minSamples trades.
	trades := []Trade{settledTrade(0.9, false)}
	rep := Calibrate(trades, 10, 0.10, 20)
	assert.Empty(t, rep.Advice)
}

func TestCalibrateEmpty(t *testing.T) {
	rep := Calibrate(nil, 10, 0.10, 20)
	assert.Zero(t, rep.SampleCount)
	assert.Zero(t, rep.BrierScore)
	assert.Len(t, rep.Buckets, 10)
}

func TestCalibrateProbabilityOneLandsInLastBucket(t *testing.T) {
	trades := []Trade{settledTrade(1.0, true)}
	rep := Calibrate(trades, 10, 0.10, 1)
	assert.Equal(t, 1, rep.Buckets[9].Count)
}
