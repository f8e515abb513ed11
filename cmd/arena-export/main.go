// One-shot tool: copy cached candles from the SQLite database into the
// Parquet archive for long-term storage.
//
// Usage:
//
//	go run cmd/arena-export/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/config"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/store"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/util"
)

func main() {
	cfgPath := "config/arena.yaml"
	if p := os.Getenv("ARENA_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.SQLitePath == "" || cfg.Storage.DataDir == "" {
		log.Fatal("both storage.sqlite_path and storage.data_dir must be configured")
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	sqliteStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open candle cache: %v", err)
	}
	defer sqliteStore.Close()

	archive := store.NewParquetStore(cfg.Storage.DataDir)

	ctx := context.Background()
	symbols, err := sqliteStore.ListSymbols(ctx)
	if err != nil {
		log.Fatalf("failed to list cached symbols: %v", err)
	}
	if len(symbols) == 0 {
		slog.Info("candle cache is empty, nothing to export")
		return
	}

	start := time.Unix(0, 0)
	end := time.Now()
	exported := 0
	for _, symbol := range symbols {
		bars, err := sqliteStore.ReadCandles(ctx, symbol, cfg.Interval, start, end)
		if err != nil {
			log.Fatalf("failed to read candles for %s: %v", symbol, err)
		}
		if len(bars) == 0 {
			continue
		}
		if err := archive.WriteCandles(ctx, bars); err != nil {
			log.Fatalf("failed to archive candles for %s: %v", symbol, err)
		}
		slog.Info("archived candles", "symbol", symbol, "count", len(bars))
		exported += len(bars)
	}

	slog.Info("export complete", "symbols", len(symbols), "candles", exported)
}
