// Package config loads the bot's configuration from YAML with .env and
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete bot configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Trading     TradingConfig     `yaml:"trading"`
	Filter      FilterConfig      `yaml:"filter"`
	Scan        ScanConfig        `yaml:"scan"`
	Indicators  IndicatorsConfig  `yaml:"indicators"`
	Calibration CalibrationConfig `yaml:"calibration"`
	API         APIConfig         `yaml:"api"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// TradingConfig holds the bankroll and risk caps.
type TradingConfig struct {
	StartingBankroll float64 `yaml:"starting_bankroll"`
	KellyFraction    float64 `yaml:"kelly_fraction"`
	MaxPositionPct   float64 `yaml:"max_position_pct"`
	MinTradeSize     float64 `yaml:"min_trade_size"`
	MaxTradesPerScan int     `yaml:"max_trades_per_scan"`
	MaxPendingTrades int     `yaml:"max_pending_trades"`
}

// FilterConfig holds the signal actionability thresholds.
type FilterConfig struct {
	MinEdge            float64            `yaml:"min_edge"`
	MinConfidence      float64            `yaml:"min_confidence"`
	MinLiquidity       float64            `yaml:"min_liquidity"`
	MaxQuoteAgeSeconds int                `yaml:"max_quote_age_seconds"`
	CategoryMinEdge    map[string]float64 `yaml:"category_min_edge"`
}

// ScanConfig holds the cycle intervals.
type ScanConfig struct {
	IntervalSeconds          int `yaml:"interval_seconds"`
	SettleIntervalSeconds    int `yaml:"settle_interval_seconds"`
	CalibrateIntervalSeconds int `yaml:"calibrate_interval_seconds"`
	Workers                  int `yaml:"workers"`
}

// IndicatorsConfig holds the composite weights for the crypto direction
// estimator. They should sum to 1.
type IndicatorsConfig struct {
	RSIWeight      float64 `yaml:"rsi_weight"`
	MomentumWeight float64 `yaml:"momentum_weight"`
	VWAPWeight     float64 `yaml:"vwap_weight"`
	SMAWeight      float64 `yaml:"sma_weight"`
	SkewWeight     float64 `yaml:"skew_weight"`
}

// CalibrationConfig tunes the calibration engine.
type CalibrationConfig struct {
	Buckets    int     `yaml:"buckets"`
	Margin     float64 `yaml:"margin"`
	MinSamples int     `yaml:"min_samples"`
}

// APIConfig holds the upstream base URLs. Empty values use production.
type APIConfig struct {
	GammaBase     string `yaml:"gamma_base"`
	BinanceBase   string `yaml:"binance_base"`
	BinanceSymbol string `yaml:"binance_symbol"`
	OpenMeteoBase string `yaml:"openmeteo_base"`
}

// StorageConfig controls where trades persist.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file at path and the .env file if present. A missing
// config file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

// ScanInterval returns the scan cycle interval as a duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scan.IntervalSeconds) * time.Second
}

// SettleInterval returns the settlement cycle interval as a duration.
func (c *Config) SettleInterval() time.Duration {
	return time.Duration(c.Scan.SettleIntervalSeconds) * time.Second
}

// CalibrateInterval returns the calibration cycle interval as a duration.
func (c *Config) CalibrateInterval() time.Duration {
	return time.Duration(c.Scan.CalibrateIntervalSeconds) * time.Second
}

// MaxQuoteAge returns the quote staleness cutoff as a duration.
func (c *Config) MaxQuoteAge() time.Duration {
	return time.Duration(c.Filter.MaxQuoteAgeSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("EDGEBOT_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Trading.StartingBankroll <= 0 {
		cfg.Trading.StartingBankroll = 10000
	}
	if cfg.Trading.KellyFraction <= 0 {
		cfg.Trading.KellyFraction = 0.25
	}
	if cfg.Trading.MaxPositionPct <= 0 {
		cfg.Trading.MaxPositionPct = 0.10
	}
	if cfg.Trading.MinTradeSize <= 0 {
		cfg.Trading.MinTradeSize = 10
	}
	if cfg.Trading.MaxTradesPerScan <= 0 {
		cfg.Trading.MaxTradesPerScan = 10
	}
	if cfg.Trading.MaxPendingTrades <= 0 {
		cfg.Trading.MaxPendingTrades = 8
	}

	if cfg.Filter.MinEdge <= 0 {
		cfg.Filter.MinEdge = 0.05
	}
	if cfg.Filter.MinConfidence <= 0 {
		cfg.Filter.MinConfidence = 0.30
	}
	if cfg.Filter.MinLiquidity <= 0 {
		cfg.Filter.MinLiquidity = 100
	}
	if cfg.Filter.MaxQuoteAgeSeconds <= 0 {
		cfg.Filter.MaxQuoteAgeSeconds = 300
	}

	if cfg.Scan.IntervalSeconds <= 0 {
		cfg.Scan.IntervalSeconds = 90
	}
	if cfg.Scan.SettleIntervalSeconds <= 0 {
		cfg.Scan.SettleIntervalSeconds = 120
	}
	if cfg.Scan.CalibrateIntervalSeconds <= 0 {
		cfg.Scan.CalibrateIntervalSeconds = 900
	}
	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = 8
	}

	if cfg.Indicators.RSIWeight <= 0 {
		cfg.Indicators.RSIWeight = 0.20
	}
	if cfg.Indicators.MomentumWeight <= 0 {
		cfg.Indicators.MomentumWeight = 0.35
	}
	if cfg.Indicators.VWAPWeight <= 0 {
		cfg.Indicators.VWAPWeight = 0.20
	}
	if cfg.Indicators.SMAWeight <= 0 {
		cfg.Indicators.SMAWeight = 0.15
	}
	if cfg.Indicators.SkewWeight <= 0 {
		cfg.Indicators.SkewWeight = 0.10
	}

	if cfg.Calibration.Buckets <= 0 {
		cfg.Calibration.Buckets = 10
	}
	if cfg.Calibration.Margin <= 0 {
		cfg.Calibration.Margin = 0.10
	}
	if cfg.Calibration.MinSamples <= 0 {
		cfg.Calibration.MinSamples = 20
	}

	if cfg.API.BinanceSymbol == "" {
		cfg.API.BinanceSymbol = "BTCUSDT"
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "edgebot.db"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
