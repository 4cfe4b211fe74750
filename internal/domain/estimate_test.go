package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateEnsembleUnweighted(t *testing.T) {
	// 3 of 4 members at or above 90 → P(above) = 0.75.
	// Majority share 0.75 → confidence (0.75-0.5)*2 = 0.5.
	samples := []ForecastSample{
		{Source: "gfs#00", Value: 91.2},
		{Source: "gfs#01", Value: 90.0},
		{Source: "gfs#02", Value: 92.5},
		{Source: "gfs#03", Value: 88.1},
	}

	est, err := EstimateEnsemble(samples, 90.0, ConditionAbove)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, est.Probability, 1e-9)
	assert.InDelta(t, 0.50, est.Confidence, 1e-9)
	assert.Equal(t, 4, est.SampleCount)
	assert.Equal(t, []string{"gfs#00", "gfs#01", "gfs#02", "gfs#03"}, est.Sources)
}

func TestEstimateEnsembleBelowCondition(t *testing.T) {
	// Same samples, below condition: 1 of 4 strictly below 90 → P = 0.25.
	samples := []ForecastSample{
		{Value: 91.2}, {Value: 90.0}, {Value: 92.5}, {Value: 88.1},
	}

	est, err := EstimateEnsemble(samples, 90.0, ConditionBelow)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, est.Probability, 1e-9)
}

func TestEstimateEnsembleWeighted(t *testing.T) {
	// Weighted: yes weight 3, no weight 1 → P = 0.75 even though the
	// sample counts are even.
	samples := []ForecastSample{
		{Value: 95, Weight: 3},
		{Value: 85, Weight: 1},
	}

	est, err := EstimateEnsemble(samples, 90.0, ConditionAbove)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, est.Probability, 1e-9)
}

func TestEstimateEnsembleZeroWeightDefaultsToOne(t *testing.T) {
	samples := []ForecastSample{
		{Value: 95},            // weight 0 → 1
		{Value: 85, Weight: 1},
	}

	est, err := EstimateEnsemble(samples, 90.0, ConditionAbove)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, est.Probability, 1e-9)
	// 50/50 split → zero confidence.
	assert.InDelta(t, 0.0, est.Confidence, 1e-9)
}

func TestEstimateEnsembleUnanimous(t *testing.T) {
	samples := []ForecastSample{{Value: 99}, {Value: 97}, {Value: 95}}

	est, err := EstimateEnsemble(samples, 90.0, ConditionAbove)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, est.Probability, 1e-9)
	assert.InDelta(t, 1.0, est.Confidence, 1e-9)
}

func TestEstimateEnsembleEmpty(t *testing.T) {
	_, err := EstimateEnsemble(nil, 90.0, ConditionAbove)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
