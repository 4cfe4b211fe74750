package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

func flatCandles(n int, price float64) []candle {
	out := make([]candle, n)
	for i := range out {
		out[i] = candle{High: price, Low: price, Close: price, Volume: 10}
	}
	return out
}

func TestComputeIndicatorsFlatMarket(t *testing.T) {
	set, err := computeIndicators(flatCandles(60, 100))
	require.NoError(t, err)

	assert.InDelta(t, 100.0, set.Price, 1e-9)
	assert.Zero(t, set.Momentum1m)
	assert.Zero(t, set.Momentum5m)
	assert.Zero(t, set.Momentum15m)
	assert.InDelta(t, 0.0, set.VWAPDeviation, 1e-9)
	assert.InDelta(t, 0.0, set.SMACrossover, 1e-9)
	assert.Zero(t, set.Volatility)
}

func TestComputeIndicatorsNeedsWindow(t *testing.T) {
	_, err := computeIndicators(flatCandles(10, 100))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestComputeRSIAllGains(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	assert.InDelta(t, 100.0, computeRSI(closes, 14), 1e-9)
}

func TestComputeRSIAllLosses(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	assert.InDelta(t, 0.0, computeRSI(closes, 14), 1e-9)
}

func TestComputeRSIBalanced(t *testing.T) {
	// Alternating ±1 moves: equal average gain and loss → RSI 50.
	closes := make([]float64, 31)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	assert.InDelta(t, 50.0, computeRSI(closes, 14), 1.0)
}

func TestMomentum(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 105}
	// last/lag5 - 1 = 105/100 - 1 = 0.05.
	assert.InDelta(t, 0.05, momentum(closes, 5), 1e-9)
	assert.InDelta(t, 105.0/104.0-1, momentum(closes, 1), 1e-9)
	// Lag longer than the series → no reading.
	assert.Zero(t, momentum(closes, 10))
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	// Last 3: (4+5+6)/3 = 5.
	assert.InDelta(t, 5.0, sma(closes, 3), 1e-9)
	assert.Zero(t, sma(closes, 10))
}

func TestVWAPWeightsByVolume(t *testing.T) {
	candles := []candle{
		{High: 100, Low: 100, Close: 100, Volume: 30},
		{High: 200, Low: 200, Close: 200, Volume: 10},
	}
	// (100*30 + 200*10) / 40 = 125.
	assert.InDelta(t, 125.0, computeVWAP(candles), 1e-9)
}

func TestComputeIndicatorsUptrend(t *testing.T) {
	// Steady uptrend: positive momentum, price above VWAP, short SMA above
	// long, RSI pinned high.
	candles := make([]candle, 60)
	price := 100.0
	for i := range candles {
		if i%2 == 0 {
			price *= 1.002
		} else {
			price *= 1.0005
		}
		candles[i] = candle{High: price * 1.0005, Low: price * 0.9995, Close: price, Volume: 10}
	}

	set, err := computeIndicators(candles)
	require.NoError(t, err)
	assert.Positive(t, set.Momentum5m)
	assert.Positive(t, set.VWAPDeviation)
	assert.Positive(t, set.SMACrossover)
	assert.Greater(t, set.RSI, 70.0)
	assert.Positive(t, set.Volatility)
}
