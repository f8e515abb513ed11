package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the trading simulator.
type Config struct {
	Symbols     []string       `yaml:"symbols"`
	InitialCash float64        `yaml:"initial_cash"`
	Interval    string         `yaml:"interval"`
	CandleCount int            `yaml:"candle_count"`
	PollSeconds int            `yaml:"poll_seconds"`
	Storage     Storage        `yaml:"storage"`
	Market      Market         `yaml:"market"`
	Decision    DecisionConfig `yaml:"decision"`
	Logging     Logging        `yaml:"logging"`
	Metrics     Metrics        `yaml:"metrics"`
}

// Storage holds paths for data persistence.
type Storage struct {
	SnapshotPath string `yaml:"snapshot_path"`
	DataDir      string `yaml:"data_dir"`
	SQLitePath   string `yaml:"sqlite_path"`
}

// Market holds endpoints and limits for the market data API.
type Market struct {
	BaseURL         string `yaml:"base_url"`
	WSURL           string `yaml:"ws_url"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	Stream          bool   `yaml:"stream"`
}

// DecisionConfig selects and tunes the decision provider.
type DecisionConfig struct {
	Provider      string  `yaml:"provider"` // momentum, random, ai
	Model         string  `yaml:"model"`
	Seed          int64   `yaml:"seed"`
	CashFraction  float64 `yaml:"cash_fraction"`
	Leverage      float64 `yaml:"leverage"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics configures the Prometheus endpoint. An empty address disables it.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ARENA_SYMBOLS"); v != "" {
		cfg.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("ARENA_INITIAL_CASH"); v != "" {
		if cash, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.InitialCash = cash
		}
	}
	if v := os.Getenv("ARENA_INTERVAL"); v != "" {
		cfg.Interval = v
	}
	if v := os.Getenv("ARENA_SNAPSHOT_PATH"); v != "" {
		cfg.Storage.SnapshotPath = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("ARENA_PROVIDER"); v != "" {
		cfg.Decision.Provider = v
	}
	if v := os.Getenv("ARENA_MODEL"); v != "" {
		cfg.Decision.Model = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// applyDefaults fills unset fields with workable defaults.
func applyDefaults(cfg *Config) {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"BTC", "ETH", "SOL"}
	}
	if cfg.InitialCash == 0 {
		cfg.InitialCash = 10000
	}
	if cfg.Interval == "" {
		cfg.Interval = "3m"
	}
	if cfg.CandleCount == 0 {
		cfg.CandleCount = 100
	}
	if cfg.PollSeconds == 0 {
		cfg.PollSeconds = 180
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = "portfolio.json"
	}
	if cfg.Market.RateLimitPerMin == 0 {
		cfg.Market.RateLimitPerMin = 60
	}
	if cfg.Decision.Provider == "" {
		cfg.Decision.Provider = "momentum"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func (cfg *Config) validate() error {
	if cfg.InitialCash < 0 {
		return fmt.Errorf("initial_cash must not be negative, got %v", cfg.InitialCash)
	}
	switch cfg.Decision.Provider {
	case "momentum", "random", "ai":
	default:
		return fmt.Errorf("unknown decision provider %q", cfg.Decision.Provider)
	}
	return nil
}

func splitSymbols(s string) []string {
	var symbols []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			symbols = append(symbols, strings.ToUpper(part))
		}
	}
	return symbols
}
