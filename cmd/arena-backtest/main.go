// One-shot tool: replay cached candles through the configured decision
// provider and print the resulting performance summary.
//
// Usage:
//
//	go run cmd/arena-backtest/main.go -days 7
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/config"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/dashboard"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/decision"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/store"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/trader"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/util"
)

func main() {
	days := flag.Int("days", 7, "number of days of cached candles to replay")
	seed := flag.Int64("seed", 1, "seed for the random provider")
	flag.Parse()

	cfgPath := "config/arena.yaml"
	if p := os.Getenv("ARENA_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.SQLitePath == "" {
		log.Fatal("storage.sqlite_path must be configured")
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	candleStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open candle cache: %v", err)
	}
	defer candleStore.Close()

	var provider decision.Provider
	switch cfg.Decision.Provider {
	case "random":
		provider = decision.NewRandomProvider(*seed)
	default:
		// Replays always use a local provider, never the model API.
		provider = decision.NewMomentumProvider(decision.MomentumConfig{
			CashFraction:  cfg.Decision.CashFraction,
			Leverage:      cfg.Decision.Leverage,
			RSIOversold:   cfg.Decision.RSIOversold,
			RSIOverbought: cfg.Decision.RSIOverbought,
		})
	}

	end := time.Now()
	start := end.Add(-time.Duration(*days) * 24 * time.Hour)

	bt := trader.NewBacktester(candleStore, provider, cfg.Interval, cfg.CandleCount)
	result, err := bt.Run(context.Background(), cfg.Symbols, start, end, cfg.InitialCash)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	fmt.Println("BACKTEST RESULT")
	fmt.Printf("  Window:         %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("  Cycles:         %d\n", result.Cycles)
	fmt.Printf("  Orders:         %d executed, %d rejected\n", result.OrdersExecuted, result.OrdersRejected)
	fmt.Printf("  Initial Cash:   %s\n", dashboard.FormatMoney(result.InitialCash))
	fmt.Printf("  Final Asset:    %s\n", dashboard.FormatMoney(result.FinalAsset))
	fmt.Printf("  Total Return:   %s\n", dashboard.FormatPercent(result.TotalReturnPercent))
	fmt.Printf("  Max Drawdown:   %.2f%%\n", result.MaxDrawdownPercent)
}
