// Package domain defines the shared types that flow between the market-data
// provider, the decision providers, and the portfolio engine.
package domain

import "time"

// Signal is the closed set of trade signal tokens a decision provider may emit.
type Signal string

const (
	SignalBuy   Signal = "buy"
	SignalSell  Signal = "sell"
	SignalHold  Signal = "hold"
	SignalClose Signal = "close"
)

// Valid reports whether s is one of the known signal tokens.
func (s Signal) Valid() bool {
	switch s {
	case SignalBuy, SignalSell, SignalHold, SignalClose:
		return true
	}
	return false
}

// Bar is a single OHLCV candle.
type Bar struct {
	Symbol     string    `json:"symbol"`
	Interval   string    `json:"interval"`
	Timestamp  time.Time `json:"timestamp"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     float64   `json:"volume"`
	TradeCount int64     `json:"trade_count"`
}

// MarketSnapshot is the per-symbol indicator summary consumed by decision
// providers. Series are ordered oldest to latest.
type MarketSnapshot struct {
	Symbol   string
	Interval string

	CurrentPrice  float64
	CurrentVolume float64
	AverageVolume float64
	FundingRate   float64

	EMA20      float64
	EMA50      float64
	MACD       float64
	MACDSignal float64
	RSI7       float64
	RSI14      float64
	ATR3       float64
	ATR14      float64

	MidPrices   []float64
	EMA20Series []float64
	EMA50Series []float64
	MACDSeries  []float64
	RSI7Series  []float64
	RSI14Series []float64
	ATR3Series  []float64
	ATR14Series []float64
}

// Decision is a single trading decision for one symbol. The numeric order
// fields are advisory until validated at the engine boundary; ProfitTarget
// and StopLoss are never enforced automatically.
type Decision struct {
	Symbol                string  `json:"coin"`
	Signal                Signal  `json:"signal"`
	Quantity              float64 `json:"quantity"`
	ProfitTarget          float64 `json:"profit_target"`
	StopLoss              float64 `json:"stop_loss"`
	InvalidationCondition string  `json:"invalidation_condition"`
	Leverage              float64 `json:"leverage"`
	Confidence            float64 `json:"confidence"`
	RiskUSD               float64 `json:"risk_usd"`
	EntryPrice            float64 `json:"entry_price"`
}
