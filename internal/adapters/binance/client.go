// Package binance computes the indicator set for short-horizon crypto
// markets from Binance 1m klines.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/edgebot/internal/domain"
)

const (
	defaultBase = "https://api.binance.com"
	klinesPath  = "/api/v3/klines"

	klineWindow = 60 // 1m candles per fetch, enough for SMA20 + RSI14

	// One scan evaluates many crypto markets off the same underlying;
	// a short cache keeps that to one upstream call.
	cacheTTL = 30 * time.Second
)

// Client implements ports.IndicatorProvider for one symbol.
type Client struct {
	http    *http.Client
	base    string
	symbol  string
	limiter *rate.Limiter
	now     func() time.Time

	mu       sync.Mutex
	cached   domain.IndicatorSet
	cachedAt time.Time
}

// NewClient creates a client for the given symbol (e.g. "BTCUSDT").
// An empty base uses the production API.
func NewClient(base, symbol string) *Client {
	if base == "" {
		base = defaultBase
	}
	if symbol == "" {
		symbol = "BTCUSDT"
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		symbol:  symbol,
		limiter: rate.NewLimiter(5, 5),
		now:     time.Now,
	}
}

// FetchIndicators returns the current indicator set, serving from cache
// within the TTL.
func (c *Client) FetchIndicators(ctx context.Context) (domain.IndicatorSet, error) {
	c.mu.Lock()
	if c.now().Sub(c.cachedAt) < cacheTTL && c.cached.Source != "" {
		set := c.cached
		c.mu.Unlock()
		return set, nil
	}
	c.mu.Unlock()

	candles, err := c.fetchKlines(ctx)
	if err != nil {
		return domain.IndicatorSet{}, fmt.Errorf("binance.FetchIndicators: %w", err)
	}

	set, err := computeIndicators(candles)
	if err != nil {
		return domain.IndicatorSet{}, fmt.Errorf("binance.FetchIndicators: %w", err)
	}
	set.Source = "binance/" + c.symbol

	c.mu.Lock()
	c.cached = set
	c.cachedAt = c.now()
	c.mu.Unlock()
	return set, nil
}

// fetchKlines loads the most recent 1m candles.
func (c *Client) fetchKlines(ctx context.Context) ([]candle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s%s?symbol=%s&interval=1m&limit=%d", c.base, klinesPath, c.symbol, klineWindow)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	// Klines come as positional arrays of mixed numbers and strings.
	var raw [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	candles := make([]candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		var cd candle
		if parseField(k[2], &cd.High) != nil ||
			parseField(k[3], &cd.Low) != nil ||
			parseField(k[4], &cd.Close) != nil ||
			parseField(k[5], &cd.Volume) != nil {
			continue
		}
		candles = append(candles, cd)
	}
	return candles, nil
}

// parseField decodes one kline field, which Binance serves as a quoted
// decimal string.
func parseField(raw json.RawMessage, out *float64) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*out = v
	return nil
}
