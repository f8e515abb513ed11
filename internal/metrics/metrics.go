// Package metrics exposes Prometheus instrumentation for the trading loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "arena_decisions_total", Help: "Decisions received from the provider, by signal"},
		[]string{"signal"},
	)
	OrdersExecuted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "arena_orders_executed_total", Help: "Orders applied to the account"})
	OrdersRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "arena_orders_rejected_total", Help: "Orders rejected by validation or insufficient cash"})
	SnapshotSaveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "arena_snapshot_save_failures_total", Help: "Failed portfolio snapshot writes"})
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "arena_cycle_duration_seconds", Help: "Wall time of one trading cycle", Buckets: prometheus.DefBuckets})

	TotalAssetUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "arena_total_asset_usd", Help: "Current account value in USD"})
	AvailableCashUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "arena_available_cash_usd", Help: "Uncommitted cash in USD"})
	UnrealizedPnLUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "arena_unrealized_pnl_usd", Help: "Aggregate unrealized PnL in USD"})
)

func init() {
	prometheus.MustRegister(
		DecisionsTotal, OrdersExecuted, OrdersRejected,
		SnapshotSaveFailures, CycleDuration,
		TotalAssetUSD, AvailableCashUSD, UnrealizedPnLUSD,
	)
}

// Serve exposes /metrics on addr. It blocks, so callers run it in a
// goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
