// Package trader runs the simulation loop: fetch market data, mark the
// account to market, ask the decision provider for signals, execute the
// resulting orders, and persist the snapshot.
package trader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/dashboard"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/decision"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/market"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/metrics"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/store"
)

// MarketData is the slice of the market client the loop needs.
type MarketData interface {
	Candles(ctx context.Context, symbol, interval string, count int) ([]domain.Bar, error)
}

// Options configures a Trader.
type Options struct {
	Interval     string
	CandleCount  int
	PollInterval time.Duration
	SnapshotPath string

	// Candles optionally records every fetched batch. Nil disables caching.
	Candles store.CandleStore

	// Output optionally receives the rendered account view after each
	// cycle. Nil disables rendering.
	Output io.Writer

	// Prices optionally feeds live mid price updates that are applied
	// between cycles. The account is only ever touched from the loop
	// goroutine.
	Prices <-chan map[string]float64
}

// Trader owns the account and advances it one cycle at a time.
type Trader struct {
	account  *portfolio.Portfolio
	market   MarketData
	provider decision.Provider
	opts     Options
	log      *slog.Logger
}

// New creates a Trader around an existing account.
func New(account *portfolio.Portfolio, market MarketData, provider decision.Provider, opts Options) *Trader {
	if opts.Interval == "" {
		opts.Interval = "3m"
	}
	if opts.CandleCount <= 0 {
		opts.CandleCount = 100
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Minute
	}
	return &Trader{
		account:  account,
		market:   market,
		provider: provider,
		opts:     opts,
		log:      slog.Default().With("component", "trader"),
	}
}

// Run executes cycles until the context is cancelled. The first cycle runs
// immediately.
func (t *Trader) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	for {
		if err := t.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				break wait
			case mids, ok := <-t.opts.Prices:
				if !ok {
					t.opts.Prices = nil
					continue
				}
				t.account.MarkToMarket(mids)
				report := t.account.Report()
				metrics.TotalAssetUSD.Set(report.TotalAsset)
				metrics.UnrealizedPnLUSD.Set(report.TotalUnrealizedPnL)
			}
		}
	}
}

// RunOnce executes a single trading cycle. Per-symbol market or execution
// failures are logged and skipped; a snapshot write failure is fatal because
// the on-disk state would otherwise fall behind the in-memory account.
func (t *Trader) RunOnce(ctx context.Context) error {
	started := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(started).Seconds())
	}()

	snapshots := t.fetchMarket(ctx)
	if len(snapshots) == 0 {
		return errors.New("no market data for any symbol")
	}

	prices := make(map[string]float64, len(snapshots))
	for symbol, snap := range snapshots {
		prices[symbol] = snap.CurrentPrice
	}
	t.account.MarkToMarket(prices)

	decisions, err := t.provider.Decide(ctx, snapshots, t.account.Report())
	if err != nil {
		return fmt.Errorf("decision provider: %w", err)
	}

	for _, symbol := range t.account.Symbols() {
		d, ok := decisions[symbol]
		if !ok {
			continue
		}
		t.applyDecision(symbol, d, prices[symbol])
	}

	if err := store.SaveSnapshot(t.opts.SnapshotPath, t.account); err != nil {
		metrics.SnapshotSaveFailures.Inc()
		return fmt.Errorf("saving snapshot: %w", err)
	}

	report := t.account.Report()
	metrics.TotalAssetUSD.Set(report.TotalAsset)
	metrics.AvailableCashUSD.Set(report.AvailableCash)
	metrics.UnrealizedPnLUSD.Set(report.TotalUnrealizedPnL)

	if t.opts.Output != nil {
		if err := dashboard.Render(t.opts.Output, report); err != nil {
			t.log.Warn("rendering account view failed", "error", err)
		}
	}

	t.log.Info("cycle complete",
		"totalAsset", report.TotalAsset,
		"availableCash", report.AvailableCash,
		"unrealizedPnL", report.TotalUnrealizedPnL,
		"returnPct", report.TotalReturnPercent)
	return nil
}

// fetchMarket builds an indicator snapshot per symbol. Symbols whose fetch
// fails are skipped for this cycle.
func (t *Trader) fetchMarket(ctx context.Context) map[string]domain.MarketSnapshot {
	snapshots := make(map[string]domain.MarketSnapshot)
	for _, symbol := range t.account.Symbols() {
		bars, err := t.market.Candles(ctx, symbol, t.opts.Interval, t.opts.CandleCount)
		if err != nil {
			t.log.Warn("fetching candles failed", "symbol", symbol, "error", err)
			continue
		}
		if len(bars) == 0 {
			t.log.Warn("no candles returned", "symbol", symbol)
			continue
		}

		if t.opts.Candles != nil {
			if err := t.opts.Candles.WriteCandles(ctx, bars); err != nil {
				t.log.Warn("caching candles failed", "symbol", symbol, "error", err)
			}
		}
		snapshots[symbol] = market.BuildSnapshot(symbol, t.opts.Interval, bars)
	}
	return snapshots
}

// applyDecision validates one decision and executes the order it implies.
// Rejections leave the account untouched.
func (t *Trader) applyDecision(symbol string, d domain.Decision, price float64) {
	metrics.DecisionsTotal.WithLabelValues(string(d.Signal)).Inc()

	if err := decision.Validate(d); err != nil {
		metrics.OrdersRejected.Inc()
		t.log.Warn("rejecting decision", "symbol", symbol, "error", err)
		return
	}

	order, ok := orderFromDecision(t.account, symbol, d, price, t.log)
	if !ok {
		return
	}

	if err := t.account.ExecuteOrder(order); err != nil {
		metrics.OrdersRejected.Inc()
		t.log.Warn("order rejected", "symbol", symbol, "signal", d.Signal,
			"quantity", order.Quantity, "price", order.Price, "error", err)
		return
	}

	metrics.OrdersExecuted.Inc()
	t.log.Info("order executed", "symbol", symbol, "signal", d.Signal,
		"quantity", order.Quantity, "price", order.Price, "leverage", order.Leverage)
}

// orderFromDecision translates a decision into an engine order. Hold yields
// nothing; close yields the opposite of the current position at the latest
// price.
func orderFromDecision(account *portfolio.Portfolio, symbol string, d domain.Decision, price float64, log *slog.Logger) (portfolio.Order, bool) {
	switch d.Signal {
	case domain.SignalHold:
		return portfolio.Order{}, false

	case domain.SignalClose:
		pos, ok := account.Position(symbol)
		if !ok || !pos.IsOpen() {
			return portfolio.Order{}, false
		}
		if price <= 0 {
			log.Warn("cannot close without a price", "symbol", symbol)
			return portfolio.Order{}, false
		}
		return portfolio.Order{
			Symbol:   symbol,
			Quantity: -pos.Quantity,
			Price:    price,
			Leverage: pos.Leverage,
		}, true
	}

	fillPrice := d.EntryPrice
	if fillPrice <= 0 {
		fillPrice = price
	}
	if fillPrice <= 0 {
		log.Warn("cannot execute without a price", "symbol", symbol, "signal", d.Signal)
		return portfolio.Order{}, false
	}

	quantity := d.Quantity
	if d.Signal == domain.SignalSell && quantity > 0 {
		quantity = -quantity
	}

	order := portfolio.Order{
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      fillPrice,
		Leverage:   d.Leverage,
		Confidence: d.Confidence,
	}
	if d.ProfitTarget > 0 {
		pt := d.ProfitTarget
		order.ProfitTarget = &pt
	}
	if d.StopLoss > 0 {
		sl := d.StopLoss
		order.StopLoss = &sl
	}
	return order, true
}
