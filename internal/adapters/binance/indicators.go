package binance

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

// candle is one 1m kline reduced to the fields the indicators use.
type candle struct {
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

const (
	rsiPeriod  = 14
	smaShort   = 5
	smaLong    = 20
	minCandles = smaLong + 1
)

// computeIndicators derives the indicator set from a chronological candle
// window (oldest first).
func computeIndicators(candles []candle) (domain.IndicatorSet, error) {
	if len(candles) < minCandles {
		return domain.IndicatorSet{}, fmt.Errorf("need %d candles, got %d: %w",
			minCandles, len(candles), domain.ErrInsufficientData)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	last := closes[len(closes)-1]

	vwap := computeVWAP(candles)
	vwapDev := 0.0
	if vwap > 0 {
		vwapDev = (last - vwap) / vwap
	}

	smaS := sma(closes, smaShort)
	smaL := sma(closes, smaLong)
	smaCross := 0.0
	if smaL > 0 {
		smaCross = (smaS - smaL) / smaL
	}

	return domain.IndicatorSet{
		Price:         last,
		RSI:           computeRSI(closes, rsiPeriod),
		Momentum1m:    momentum(closes, 1),
		Momentum5m:    momentum(closes, 5),
		Momentum15m:   momentum(closes, 15),
		VWAPDeviation: vwapDev,
		SMACrossover:  smaCross,
		Volatility:    returnStddev(closes),
	}, nil
}

// computeRSI is Wilder's RSI: initial simple average of gains/losses over the
// period, then exponential smoothing for the remainder of the window.
func computeRSI(closes []float64, period int) float64 {
	if len(closes) <= period {
		return 50
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if delta > 0 {
			g = delta
		} else {
			l = -delta
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// momentum is the fractional close-to-close change over n candles.
func momentum(closes []float64, n int) float64 {
	if len(closes) <= n {
		return 0
	}
	prev := closes[len(closes)-1-n]
	if prev == 0 {
		return 0
	}
	return closes[len(closes)-1]/prev - 1
}

// computeVWAP is the volume-weighted average of typical prices over the
// window. Zero total volume falls back to the last close.
func computeVWAP(candles []candle) float64 {
	var pv, vol float64
	for _, c := range candles {
		typical := (c.High + c.Low + c.Close) / 3
		pv += typical * c.Volume
		vol += c.Volume
	}
	if vol == 0 {
		return candles[len(candles)-1].Close
	}
	return pv / vol
}

// sma is the simple moving average of the last n closes.
func sma(closes []float64, n int) float64 {
	if n <= 0 || len(closes) < n {
		return 0
	}
	sum := 0.0
	for _, v := range closes[len(closes)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// returnStddev is the standard deviation of 1-candle fractional returns.
func returnStddev(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss / float64(len(returns)))
}
