package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/config"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/decision"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/market"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/metrics"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/store"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/trader"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/util"
)

func main() {
	// Optional .env for API keys and local overrides.
	_ = godotenv.Load()

	cfgPath := "config/arena.yaml"
	if p := os.Getenv("ARENA_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	account, err := loadAccount(cfg)
	if err != nil {
		log.Fatalf("failed to load account: %v", err)
	}

	var candles store.CandleStore
	if cfg.Storage.SQLitePath != "" {
		sqliteStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open candle cache: %v", err)
		}
		defer sqliteStore.Close()
		candles = sqliteStore
	}

	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build decision provider: %v", err)
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	client := market.NewClient(cfg.Market.BaseURL, cfg.Market.RateLimitPerMin)

	opts := trader.Options{
		Interval:     cfg.Interval,
		CandleCount:  cfg.CandleCount,
		PollInterval: time.Duration(cfg.PollSeconds) * time.Second,
		SnapshotPath: cfg.Storage.SnapshotPath,
		Candles:      candles,
		Output:       os.Stdout,
	}

	if cfg.Market.Stream {
		stream := market.NewStream(cfg.Market.WSURL)
		stream.Start(ctx)
		defer stream.Stop()
		opts.Prices = stream.Updates()
	}

	t := trader.New(account, client, provider, opts)

	slog.Info("arena-trader starting",
		"symbols", cfg.Symbols,
		"interval", cfg.Interval,
		"provider", cfg.Decision.Provider)

	if err := t.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("trader stopped: %v", err)
	}
}

// loadAccount restores the account from the snapshot file, starting fresh
// when none exists. A corrupt snapshot is fatal rather than silently reset.
func loadAccount(cfg *config.Config) (*portfolio.Portfolio, error) {
	account, err := store.LoadSnapshot(cfg.Storage.SnapshotPath, cfg.Symbols)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no snapshot found, starting fresh",
			"path", cfg.Storage.SnapshotPath, "initialCash", cfg.InitialCash)
		return portfolio.New(cfg.Symbols, cfg.InitialCash), nil
	}
	if err != nil {
		return nil, err
	}
	slog.Info("restored account from snapshot",
		"path", cfg.Storage.SnapshotPath, "totalAsset", account.TotalAsset())
	return account, nil
}

func buildProvider(ctx context.Context, cfg *config.Config) (decision.Provider, error) {
	switch cfg.Decision.Provider {
	case "random":
		seed := cfg.Decision.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return decision.NewRandomProvider(seed), nil
	case "ai":
		return decision.NewAIProvider(ctx, cfg.Decision.Model)
	default:
		return decision.NewMomentumProvider(decision.MomentumConfig{
			CashFraction:  cfg.Decision.CashFraction,
			Leverage:      cfg.Decision.Leverage,
			RSIOversold:   cfg.Decision.RSIOversold,
			RSIOverbought: cfg.Decision.RSIOverbought,
		}), nil
	}
}
