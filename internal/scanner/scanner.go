package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/edgebot/internal/domain"
	"github.com/alejandrodnm/edgebot/internal/ports"
)

// Config holds the scanner's tunables.
type Config struct {
	Filter           FilterConfig
	KellyFraction    float64
	MaxPositionPct   float64
	Workers          int // parallel estimations per cycle (0 = 8)
	IndicatorWeights domain.IndicatorWeights
}

// Scanner runs one evaluation pass over the open markets:
// estimate → edge → filter → size → rank. It never mutates trades; the
// runner decides what to do with actionable signals.
type Scanner struct {
	cfg        Config
	markets    ports.MarketProvider
	quotes     ports.QuoteProvider
	forecasts  ports.ForecastProvider
	indicators ports.IndicatorProvider
	state      ports.StateReader
	filter     *Filter
	now        func() time.Time
}

func New(
	cfg Config,
	markets ports.MarketProvider,
	quotes ports.QuoteProvider,
	forecasts ports.ForecastProvider,
	indicators ports.IndicatorProvider,
	state ports.StateReader,
) *Scanner {
	return &Scanner{
		cfg:        cfg,
		markets:    markets,
		quotes:     quotes,
		forecasts:  forecasts,
		indicators: indicators,
		state:      state,
		filter:     NewFilter(cfg.Filter),
		now:        time.Now,
	}
}

// Filter exposes the scanner's filter for threshold introspection.
func (s *Scanner) Filter() *Filter {
	return s.filter
}

// Cycle runs one scan and returns all signals (actionable or not) sorted by
// absolute edge descending. Per-market failures are logged and skipped; only
// fetch failures abort the cycle.
func (s *Scanner) Cycle(ctx context.Context) ([]domain.Signal, error) {
	start := s.now()

	markets, err := s.markets.FetchMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanner.Cycle: fetch markets: %w", err)
	}

	tradeable := markets[:0:0]
	for _, m := range markets {
		if m.Category.Tradeable() {
			tradeable = append(tradeable, m)
		}
	}
	if len(tradeable) == 0 {
		slog.Info("scan: no tradeable markets")
		return nil, nil
	}

	ids := make([]string, 0, len(tradeable))
	for _, m := range tradeable {
		ids = append(ids, m.ID)
	}
	quotes, err := s.quotes.FetchQuotes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("scanner.Cycle: fetch quotes: %w", err)
	}

	state, err := s.state.GetState(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanner.Cycle: load state: %w", err)
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 8
	}

	var (
		mu      sync.Mutex
		signals []domain.Signal
		skipped int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, m := range tradeable {
		m := m
		q, ok := quotes[m.ID]
		if !ok {
			mu.Lock()
			skipped++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			sig, err := s.evaluate(gctx, m, q, state.Bankroll)
			if err != nil {
				// Estimator gaps are expected; anything else is worth a warn.
				if errors.Is(err, domain.ErrInsufficientData) || errors.Is(err, domain.ErrStaleQuote) {
					slog.Debug("scan: market skipped", "market", m.ID, "err", err)
				} else {
					slog.Warn("scan: market evaluation failed", "market", m.ID, "err", err)
				}
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			signals = append(signals, sig)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scanner.Cycle: %w", err)
	}

	sort.Slice(signals, func(i, j int) bool {
		ei, ej := abs(signals[i].Edge), abs(signals[j].Edge)
		if ei != ej {
			return ei > ej
		}
		return signals[i].MarketID < signals[j].MarketID
	})

	actionable := 0
	for _, sig := range signals {
		if sig.Actionable {
			actionable++
		}
	}
	slog.Info("scan: cycle complete",
		"markets", len(tradeable),
		"signals", len(signals),
		"actionable", actionable,
		"skipped", skipped,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return signals, nil
}

// evaluate produces the signal for a single market.
func (s *Scanner) evaluate(ctx context.Context, m domain.Market, q domain.MarketQuote, bankroll float64) (domain.Signal, error) {
	if q.Stale(s.now(), s.filter.MaxQuoteAge()) {
		return domain.Signal{}, fmt.Errorf("scanner.evaluate: quote age %s: %w",
			s.now().Sub(q.ObservedAt).Round(time.Second), domain.ErrStaleQuote)
	}

	est, err := s.estimate(ctx, m, q)
	if err != nil {
		return domain.Signal{}, err
	}

	dir, edge := domain.BestDirection(est.Probability, q)
	entryPrice := q.PriceFor(dir)

	modelDirProb := est.Probability
	if dir == domain.DirectionNo {
		modelDirProb = 1 - est.Probability
	}

	actionable := s.filter.Actionable(edge, est.Confidence, q.Liquidity, m.Category)

	size := 0.0
	if actionable {
		size = domain.PositionSize(edge, q.YesPrice, dir, bankroll, s.cfg.KellyFraction, s.cfg.MaxPositionPct)
	}

	return domain.Signal{
		ID:                uuid.NewString(),
		MarketID:          m.ID,
		Question:          m.Question,
		Category:          m.Category,
		Direction:         dir,
		ModelProbability:  modelDirProb,
		MarketProbability: entryPrice,
		EntryPrice:        entryPrice,
		Edge:              edge,
		Confidence:        est.Confidence,
		Liquidity:         q.Liquidity,
		SuggestedSize:     size,
		Actionable:        actionable,
		Explanation: domain.Explanation{
			ModelProbability:  modelDirProb,
			MarketProbability: entryPrice,
			Edge:              edge,
			Confidence:        est.Confidence,
			Sources:           est.Sources,
			SampleCount:       est.SampleCount,
			Factors:           est.Factors,
			Summary:           domain.Summarize(dir, modelDirProb, entryPrice, edge),
		},
		CreatedAt: s.now().UTC(),
	}, nil
}

// estimate routes a market to its estimator: indicator-based for crypto
// up/down markets, ensemble-based for everything with a numeric threshold.
func (s *Scanner) estimate(ctx context.Context, m domain.Market, q domain.MarketQuote) (domain.ProbabilityEstimate, error) {
	if m.Category == domain.CategoryCrypto && !m.HasThreshold {
		ind, err := s.indicators.FetchIndicators(ctx)
		if err != nil {
			return domain.ProbabilityEstimate{}, fmt.Errorf("scanner.estimate: indicators: %w", err)
		}
		return domain.EstimateDirection(ind, q.YesPrice, s.cfg.IndicatorWeights), nil
	}

	if !m.HasThreshold {
		return domain.ProbabilityEstimate{}, fmt.Errorf("scanner.estimate: no threshold in question: %w", domain.ErrInsufficientData)
	}

	samples, err := s.forecasts.FetchSamples(ctx, m)
	if err != nil {
		return domain.ProbabilityEstimate{}, fmt.Errorf("scanner.estimate: samples: %w", err)
	}
	est, err := domain.EstimateEnsemble(samples, m.Threshold, m.ThresholdDir)
	if err != nil {
		return domain.ProbabilityEstimate{}, fmt.Errorf("scanner.estimate: %w", err)
	}
	return est, nil
}
