// Package store provides persistence: the portfolio snapshot file, a SQLite
// candle cache, and a Parquet candle archive.
package store

import (
	"context"
	"time"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
)

// CandleStore persists and retrieves OHLCV candle data.
type CandleStore interface {
	// WriteCandles persists a batch of candles, replacing existing rows for
	// the same (symbol, interval, timestamp).
	WriteCandles(ctx context.Context, bars []domain.Bar) error

	// ReadCandles returns candles for the given symbol and interval within
	// [start, end], ordered by timestamp.
	ReadCandles(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored candles.
	ListSymbols(ctx context.Context) ([]string, error)
}
