// One-shot tool: print the account summary from the saved snapshot, plus
// candle statistics from the cache when one is configured.
//
// Usage:
//
//	go run cmd/arena-report/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/config"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/dashboard"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfgPath := "config/arena.yaml"
	if p := os.Getenv("ARENA_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	account, err := store.LoadSnapshot(cfg.Storage.SnapshotPath, cfg.Symbols)
	if errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("no snapshot at %s; run arena-trader first", cfg.Storage.SnapshotPath)
	}
	if err != nil {
		log.Fatalf("failed to load snapshot: %v", err)
	}

	if err := dashboard.Render(os.Stdout, account.Report()); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}

	if cfg.Storage.SQLitePath == "" {
		return
	}

	sqliteStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open candle cache: %v", err)
	}
	defer sqliteStore.Close()

	ctx := context.Background()
	end := time.Now()
	start := end.Add(-24 * time.Hour)

	var bars []domain.Bar
	for _, symbol := range cfg.Symbols {
		b, err := sqliteStore.ReadCandles(ctx, symbol, cfg.Interval, start, end)
		if err != nil {
			log.Fatalf("failed to read candles for %s: %v", symbol, err)
		}
		bars = append(bars, b...)
	}
	if len(bars) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("MARKET (last 24h)")
	if err := dashboard.RenderStats(os.Stdout, dashboard.AggregateCandles(bars)); err != nil {
		log.Fatalf("failed to render stats: %v", err)
	}
}
