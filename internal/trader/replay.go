package trader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/decision"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/market"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/store"
)

// BacktestResult holds the summary metrics produced by a replay run.
type BacktestResult struct {
	InitialCash        float64
	FinalAsset         float64
	TotalReturnPercent float64
	MaxDrawdownPercent float64
	Cycles             int
	OrdersExecuted     int
	OrdersRejected     int
}

// Backtester replays stored candles through a decision provider and a fresh
// account, one cycle per candle timestamp.
type Backtester struct {
	candles  store.CandleStore
	provider decision.Provider
	interval string
	window   int
	log      *slog.Logger
}

// NewBacktester creates a Backtester that reads candles from the given store
// at the given interval. Each cycle sees at most window candles of history.
func NewBacktester(candles store.CandleStore, provider decision.Provider, interval string, window int) *Backtester {
	if window <= 0 {
		window = 100
	}
	return &Backtester{
		candles:  candles,
		provider: provider,
		interval: interval,
		window:   window,
		log:      slog.Default().With("component", "backtest"),
	}
}

// Run replays [start, end] for the given symbols starting from initialCash.
func (bt *Backtester) Run(ctx context.Context, symbols []string, start, end time.Time, initialCash float64) (*BacktestResult, error) {
	history := make(map[string][]domain.Bar, len(symbols))
	ticks := make(map[time.Time]bool)
	for _, symbol := range symbols {
		bars, err := bt.candles.ReadCandles(ctx, symbol, bt.interval, start, end)
		if err != nil {
			return nil, fmt.Errorf("reading candles for %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			continue
		}
		history[symbol] = bars
		for _, b := range bars {
			ticks[b.Timestamp] = true
		}
	}
	if len(history) == 0 {
		return nil, errors.New("no candles in the requested range")
	}

	timeline := make([]time.Time, 0, len(ticks))
	for ts := range ticks {
		timeline = append(timeline, ts)
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })

	account := portfolio.New(symbols, initialCash)
	result := &BacktestResult{InitialCash: initialCash}
	peak := initialCash

	for _, ts := range timeline {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		snapshots := make(map[string]domain.MarketSnapshot)
		prices := make(map[string]float64)
		for symbol, bars := range history {
			visible := barsThrough(bars, ts)
			if len(visible) == 0 {
				continue
			}
			if len(visible) > bt.window {
				visible = visible[len(visible)-bt.window:]
			}
			snapshots[symbol] = market.BuildSnapshot(symbol, bt.interval, visible)
			prices[symbol] = visible[len(visible)-1].Close
		}
		if len(snapshots) == 0 {
			continue
		}
		account.MarkToMarket(prices)

		decisions, err := bt.provider.Decide(ctx, snapshots, account.Report())
		if err != nil {
			return nil, fmt.Errorf("decision provider at %s: %w", ts, err)
		}

		for _, symbol := range account.Symbols() {
			d, ok := decisions[symbol]
			if !ok {
				continue
			}
			if err := decision.Validate(d); err != nil {
				result.OrdersRejected++
				continue
			}
			order, ok := orderFromDecision(account, symbol, d, prices[symbol], bt.log)
			if !ok {
				continue
			}
			if err := account.ExecuteOrder(order); err != nil {
				result.OrdersRejected++
				continue
			}
			result.OrdersExecuted++
		}

		result.Cycles++
		asset := account.TotalAsset()
		if asset > peak {
			peak = asset
		}
		if peak > 0 {
			if dd := (peak - asset) / peak * 100; dd > result.MaxDrawdownPercent {
				result.MaxDrawdownPercent = dd
			}
		}
	}

	result.FinalAsset = account.TotalAsset()
	result.TotalReturnPercent = account.TotalReturnPercent()
	return result, nil
}

// barsThrough returns the prefix of bars whose timestamp is at or before ts.
// Bars are already sorted oldest first.
func barsThrough(bars []domain.Bar, ts time.Time) []domain.Bar {
	n := sort.Search(len(bars), func(i int) bool {
		return bars[i].Timestamp.After(ts)
	})
	return bars[:n]
}
