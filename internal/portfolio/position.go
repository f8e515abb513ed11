package portfolio

import (
	"math"
	"time"
)

// Position is one symbol's directional exposure. Quantity is signed:
// positive for long, negative for short, zero for flat. EntryPrice is the
// volume-weighted average price of the open exposure and is meaningless when
// the position is flat.
type Position struct {
	Symbol           string    `json:"symbol"`
	Quantity         float64   `json:"quantity"`
	EntryPrice       float64   `json:"entry_price"`
	CurrentPrice     float64   `json:"current_price"`
	Leverage         float64   `json:"leverage"`
	LiquidationPrice *float64  `json:"liquidation_price"`
	UnrealizedPnL    float64   `json:"unrealized_pnl"`
	EntryTime        time.Time `json:"entry_time"`

	// Advisory exit plan from the decision provider. Never enforced by the
	// engine; closing on a target or stop is an explicit future order.
	ProfitTarget *float64 `json:"profit_target,omitempty"`
	StopLoss     *float64 `json:"stop_loss,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
}

// IsOpen reports whether the position has nonzero exposure.
func (p Position) IsOpen() bool { return p.Quantity != 0 }

// IsLong reports whether the position is long.
func (p Position) IsLong() bool { return p.Quantity > 0 }

// IsShort reports whether the position is short.
func (p Position) IsShort() bool { return p.Quantity < 0 }

// Collateral returns the cash set aside to back this position's notional
// exposure: |quantity| * entry_price / leverage. Zero when flat.
func (p Position) Collateral() float64 {
	if !p.IsOpen() {
		return 0
	}
	return math.Abs(p.Quantity) * p.EntryPrice / p.Leverage
}

// NotionalUSD returns the position's notional value at the current price.
func (p Position) NotionalUSD() float64 {
	return math.Abs(p.Quantity) * p.CurrentPrice
}

// RiskUSD returns the loss at the advisory stop level, or 0 when no stop is
// set. Reporting only.
func (p Position) RiskUSD() float64 {
	if p.StopLoss == nil || !p.IsOpen() {
		return 0
	}
	return math.Abs(p.EntryPrice-*p.StopLoss) * math.Abs(p.Quantity) * p.Leverage
}

// unrealized returns quantity * (current - entry). The sign of the quantity
// already encodes short exposure, so the formula holds for both directions.
func (p Position) unrealized() float64 {
	if !p.IsOpen() {
		return 0
	}
	return p.Quantity * (p.CurrentPrice - p.EntryPrice)
}

// mark updates the current price and the derived unrealized PnL. It never
// touches the liquidation price: that is a function of entry and leverage
// only.
func (p *Position) mark(price float64) {
	p.CurrentPrice = price
	p.UnrealizedPnL = p.unrealized()
}

// refreshLiquidation recomputes the liquidation price from the post-change
// entry price and leverage. Called on every quantity or leverage change.
//
// Simplified model: long entry*(1-1/leverage) floored at zero, short
// entry*(1+1/leverage). No maintenance-margin buffer, no fees.
func (p *Position) refreshLiquidation() {
	if !p.IsOpen() {
		p.LiquidationPrice = nil
		return
	}
	var lp float64
	if p.IsLong() {
		lp = p.EntryPrice * (1 - 1/p.Leverage)
		if lp < 0 {
			lp = 0
		}
	} else {
		lp = p.EntryPrice * (1 + 1/p.Leverage)
	}
	p.LiquidationPrice = &lp
}

// flatten resets the position to zero exposure, keeping the last marked
// price. Closed positions revert to quantity 0 rather than disappearing.
func (p *Position) flatten() {
	p.Quantity = 0
	p.EntryPrice = 0
	p.Leverage = 1
	p.LiquidationPrice = nil
	p.UnrealizedPnL = 0
	p.ProfitTarget = nil
	p.StopLoss = nil
	p.Confidence = 0
}
