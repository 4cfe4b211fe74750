package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/edgebot/internal/application/calibrate"
	"github.com/alejandrodnm/edgebot/internal/application/engine/sim"
	"github.com/alejandrodnm/edgebot/internal/application/events"
	"github.com/alejandrodnm/edgebot/internal/domain"
	"github.com/alejandrodnm/edgebot/internal/scanner"
)

// memStore is a minimal in-memory trade storage for wiring a full runner.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	trades map[int64]domain.Trade
	state  domain.BankrollState
	equity []domain.EquityPoint
}

func newMemStore(bankroll float64) *memStore {
	return &memStore{
		nextID: 1,
		trades: map[int64]domain.Trade{},
		state:  domain.BankrollState{Bankroll: bankroll, StartingBankroll: bankroll, IsRunning: true},
	}
}

func (m *memStore) SaveTrade(_ context.Context, t domain.Trade) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID
	m.nextID++
	m.trades[t.ID] = t
	return t.ID, nil
}

func (m *memStore) SettleTrade(_ context.Context, id int64, result domain.TradeResult, pnl float64, settledAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[id]
	if !ok || t.Settled {
		return domain.ErrAlreadySettled
	}
	t.Settled, t.Result, t.PnL, t.SettledAt = true, result, &pnl, &settledAt
	m.trades[id] = t
	return nil
}

func (m *memStore) GetTrade(_ context.Context, id int64) (domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trades[id], nil
}

func (m *memStore) GetTrades(_ context.Context, limit int, result domain.TradeResult) ([]domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Trade
	for id := int64(1); id < m.nextID; id++ {
		t := m.trades[id]
		if result != "" && t.Result != result {
			continue
		}
		out = append(out, t)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetPendingTrades(ctx context.Context) ([]domain.Trade, error) {
	return m.GetTrades(ctx, 0, domain.ResultPending)
}

func (m *memStore) GetSettledTrades(_ context.Context) ([]domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Trade
	for id := int64(1); id < m.nextID; id++ {
		if t := m.trades[id]; t.Settled {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) CountPending(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.trades {
		if !t.Settled {
			n++
		}
	}
	return n, nil
}

func (m *memStore) HasOpenTrade(_ context.Context, marketID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trades {
		if t.MarketID == marketID && !t.Settled {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetState(_ context.Context) (domain.BankrollState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *memStore) SaveState(_ context.Context, s domain.BankrollState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return nil
}

func (m *memStore) AppendEquityPoint(_ context.Context, p domain.EquityPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equity = append(m.equity, p)
	return nil
}

func (m *memStore) GetEquityCurve(_ context.Context) ([]domain.EquityPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.EquityPoint(nil), m.equity...), nil
}

func (m *memStore) Reset(_ context.Context, startingBankroll float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = map[int64]domain.Trade{}
	m.nextID = 1
	m.equity = nil
	m.state = domain.BankrollState{Bankroll: startingBankroll, StartingBankroll: startingBankroll, IsRunning: m.state.IsRunning}
	return nil
}

func (m *memStore) Close() error { return nil }

type fakeMarkets struct{ markets []domain.Market }

func (f *fakeMarkets) FetchMarkets(context.Context) ([]domain.Market, error) { return f.markets, nil }

type fakeQuotes struct{ quotes map[string]domain.MarketQuote }

func (f *fakeQuotes) FetchQuotes(context.Context, []string) (map[string]domain.MarketQuote, error) {
	return f.quotes, nil
}

type fakeForecasts struct{ samples []domain.ForecastSample }

func (f *fakeForecasts) FetchSamples(context.Context, domain.Market) ([]domain.ForecastSample, error) {
	if f.samples == nil {
		return nil, domain.ErrInsufficientData
	}
	return f.samples, nil
}

type fakeIndicators struct{}

func (fakeIndicators) FetchIndicators(context.Context) (domain.IndicatorSet, error) {
	return domain.IndicatorSet{}, nil
}

type fakeResolver struct{ res map[string]domain.Resolution }

func (f *fakeResolver) FetchResolution(_ context.Context, id string) (domain.Resolution, error) {
	return f.res[id], nil
}

func newTestRunner(store *memStore, resolver *fakeResolver) (*Runner, *events.Bus) {
	// One weather market priced 0.60 with a unanimous above-threshold
	// ensemble → P=1.0, edge 0.40 → actionable.
	markets := []domain.Market{{
		ID:           "m1",
		Question:     "Will the high temperature exceed 90 degrees?",
		Category:     domain.CategoryWeather,
		Threshold:    90,
		ThresholdDir: domain.ConditionAbove,
		HasThreshold: true,
	}}
	quotes := map[string]domain.MarketQuote{
		"m1": {YesPrice: 0.60, NoPrice: 0.40, Liquidity: 1000, ObservedAt: time.Now()},
	}
	samples := []domain.ForecastSample{{Value: 95}, {Value: 96}, {Value: 97}}

	sc := scanner.New(scanner.Config{
		Filter: scanner.FilterConfig{
			MinEdge:       0.05,
			MinConfidence: 0.20,
			MinLiquidity:  100,
			MaxQuoteAge:   5 * time.Minute,
		},
		KellyFraction:    0.25,
		MaxPositionPct:   0.10,
		IndicatorWeights: domain.DefaultIndicatorWeights(),
	}, &fakeMarkets{markets}, &fakeQuotes{quotes}, &fakeForecasts{samples}, fakeIndicators{}, store)

	bus := events.NewBus(200)
	simEngine := sim.New(sim.Config{
		StartingBankroll: 10000,
		MinTradeSize:     10,
		MaxTradesPerScan: 10,
		MaxPendingTrades: 8,
	}, store, bus)
	cal := calibrate.New(calibrate.Config{Buckets: 10, Margin: 0.10, MinSamples: 1}, store)

	return New(Config{}, sc, simEngine, cal, resolver, nil, bus), bus
}

func TestScanOnceOpensTradesAndRecordsRun(t *testing.T) {
	store := newMemStore(10000)
	r, bus := newTestRunner(store, &fakeResolver{})
	ctx := context.Background()

	signals, err := r.ScanOnce(ctx)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.True(t, signals[0].Actionable)

	pending, _ := store.CountPending(ctx)
	assert.Equal(t, 1, pending)

	state, _ := store.GetState(ctx)
	require.NotNil(t, state.LastRun)

	// Snapshot matches the cycle result.
	snap := r.Signals()
	require.Len(t, snap, 1)
	assert.Equal(t, signals[0].ID, snap[0].ID)

	// Scan + signal events landed on the bus.
	types := map[events.Type]bool{}
	for _, ev := range bus.Recent(0) {
		types[ev.Type] = true
	}
	assert.True(t, types[events.TypeScan])
	assert.True(t, types[events.TypeSignal])
	assert.True(t, types[events.TypeTrade])
}

func TestScanOnceDoesNotDuplicateOpenMarkets(t *testing.T) {
	store := newMemStore(10000)
	r, _ := newTestRunner(store, &fakeResolver{})
	ctx := context.Background()

	_, err := r.ScanOnce(ctx)
	require.NoError(t, err)
	_, err = r.ScanOnce(ctx)
	require.NoError(t, err)

	pending, _ := store.CountPending(ctx)
	assert.Equal(t, 1, pending)
}

func TestSettleOnce(t *testing.T) {
	store := newMemStore(10000)
	resolver := &fakeResolver{res: map[string]domain.Resolution{
		"m1": {Resolved: true, YesWon: true},
	}}
	r, bus := newTestRunner(store, resolver)
	ctx := context.Background()

	_, err := r.ScanOnce(ctx)
	require.NoError(t, err)

	settled, err := r.SettleOnce(ctx)
	require.NoError(t, err)
	require.Len(t, settled, 1)
	assert.Equal(t, domain.ResultWin, settled[0].Result)

	found := false
	for _, ev := range bus.Recent(0) {
		if ev.Type == events.TypeSettle {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStartStopGate(t *testing.T) {
	store := newMemStore(10000)
	r, _ := newTestRunner(store, &fakeResolver{})
	ctx := context.Background()

	require.NoError(t, r.Stop(ctx))
	assert.False(t, r.running(ctx))

	require.NoError(t, r.Start(ctx))
	assert.True(t, r.running(ctx))
}

func TestResetClearsSignals(t *testing.T) {
	store := newMemStore(10000)
	r, _ := newTestRunner(store, &fakeResolver{})
	ctx := context.Background()

	_, err := r.ScanOnce(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, r.Signals())

	require.NoError(t, r.Reset(ctx))
	assert.Empty(t, r.Signals())

	state, _ := store.GetState(ctx)
	assert.InDelta(t, 10000.0, state.Bankroll, 1e-9)
}

func TestRunHonorsContextCancel(t *testing.T) {
	store := newMemStore(10000)
	r, _ := newTestRunner(store, &fakeResolver{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on context cancel")
	}
}
