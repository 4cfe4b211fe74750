package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/edgebot/config"
	"github.com/alejandrodnm/edgebot/internal/adapters/binance"
	"github.com/alejandrodnm/edgebot/internal/adapters/notify"
	"github.com/alejandrodnm/edgebot/internal/adapters/openmeteo"
	"github.com/alejandrodnm/edgebot/internal/adapters/polymarket"
	"github.com/alejandrodnm/edgebot/internal/adapters/storage"
	"github.com/alejandrodnm/edgebot/internal/application/calibrate"
	"github.com/alejandrodnm/edgebot/internal/application/engine/sim"
	"github.com/alejandrodnm/edgebot/internal/application/events"
	"github.com/alejandrodnm/edgebot/internal/application/runner"
	"github.com/alejandrodnm/edgebot/internal/domain"
	"github.com/alejandrodnm/edgebot/internal/scanner"
	"github.com/alejandrodnm/edgebot/internal/server"
	"github.com/alejandrodnm/edgebot/internal/server/handler"
	"github.com/alejandrodnm/edgebot/internal/server/ws"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the full signal table (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("edgebot starting",
		"config", *configPath,
		"scan_interval", cfg.ScanInterval(),
		"port", cfg.Server.Port,
		"once", *once,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN, cfg.Trading.StartingBankroll)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	gamma := polymarket.NewClient(cfg.API.GammaBase)
	forecasts := openmeteo.NewClient(cfg.API.OpenMeteoBase, nil)
	indicators := binance.NewClient(cfg.API.BinanceBase, cfg.API.BinanceSymbol)

	categoryMinEdge := make(map[domain.MarketCategory]float64, len(cfg.Filter.CategoryMinEdge))
	for cat, edge := range cfg.Filter.CategoryMinEdge {
		categoryMinEdge[domain.MarketCategory(cat)] = edge
	}

	sc := scanner.New(scanner.Config{
		Filter: scanner.FilterConfig{
			MinEdge:         cfg.Filter.MinEdge,
			MinConfidence:   cfg.Filter.MinConfidence,
			MinLiquidity:    cfg.Filter.MinLiquidity,
			MaxQuoteAge:     cfg.MaxQuoteAge(),
			CategoryMinEdge: categoryMinEdge,
		},
		KellyFraction:    cfg.Trading.KellyFraction,
		MaxPositionPct:   cfg.Trading.MaxPositionPct,
		Workers: cfg.Scan.Workers,
		IndicatorWeights: domain.IndicatorWeights{
			RSI:      cfg.Indicators.RSIWeight,
			Momentum: cfg.Indicators.MomentumWeight,
			VWAP:     cfg.Indicators.VWAPWeight,
			SMA:      cfg.Indicators.SMAWeight,
			Skew:     cfg.Indicators.SkewWeight,
		},
	}, gamma, gamma, forecasts, indicators, store)

	bus := events.NewBus(200)
	simEngine := sim.New(sim.Config{
		StartingBankroll: cfg.Trading.StartingBankroll,
		MinTradeSize:     cfg.Trading.MinTradeSize,
		MaxTradesPerScan: cfg.Trading.MaxTradesPerScan,
		MaxPendingTrades: cfg.Trading.MaxPendingTrades,
	}, store, bus)
	cal := calibrate.New(calibrate.Config{
		Buckets:    cfg.Calibration.Buckets,
		Margin:     cfg.Calibration.Margin,
		MinSamples: cfg.Calibration.MinSamples,
	}, store)
	notifier := notify.NewConsole(*table)

	run := runner.New(runner.Config{
		ScanInterval:      cfg.ScanInterval(),
		SettleInterval:    cfg.SettleInterval(),
		CalibrateInterval: cfg.CalibrateInterval(),
	}, sc, simEngine, cal, gamma, notifier, bus)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		signals, err := run.ScanOnce(ctx)
		if err != nil {
			slog.Error("scan failed", "err", err)
			os.Exit(1)
		}
		slog.Info("scan complete", "signals", len(signals))
		return
	}

	hub := ws.NewHub(bus)
	srv := server.NewServer(server.Config{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, server.Handlers{
		Health:      handler.NewHealthHandler(time.Now().UTC()),
		Stats:       handler.NewStatsHandler(simEngine),
		Signals:     handler.NewSignalsHandler(run),
		Trades:      handler.NewTradesHandler(simEngine),
		Bot:         handler.NewBotHandler(run, simEngine),
		Calibration: handler.NewCalibrationHandler(cal),
		Events:      handler.NewEventsHandler(bus),
	}, hub)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return run.Run(gctx) })
	g.Go(func() error {
		err := hub.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		slog.Error("edgebot exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("edgebot stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
