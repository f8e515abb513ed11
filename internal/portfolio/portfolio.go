// Package portfolio implements the leveraged-account engine: per-symbol
// positions, cash-conserving trade execution, mark-to-market, and the
// derived liquidation and valuation metrics.
//
// The engine is a pure state-transition library. It owns no I/O and performs
// no locking: a single logical actor advances the state, and callers
// sequence operations one at a time.
package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Order is a single directional trade instruction. Quantity is signed:
// positive buys, negative sells.
type Order struct {
	Symbol   string
	Quantity float64
	Price    float64
	Leverage float64

	// Advisory fields recorded on the position when the order opens or
	// increases exposure.
	ProfitTarget *float64
	StopLoss     *float64
	Confidence   float64
}

// Portfolio is the full account state: available cash plus one position slot
// per tracked symbol. Slots are pre-seeded at construction and never
// removed; a closed position reverts to quantity 0.
type Portfolio struct {
	positions     map[string]*Position
	symbols       []string // stable iteration order
	initialCash   float64
	availableCash float64
	timestamp     time.Time

	now func() time.Time
}

// New creates a fresh portfolio tracking the given symbols with all
// positions flat and the full starting cash available.
func New(symbols []string, initialCash float64) *Portfolio {
	p := &Portfolio{
		positions:     make(map[string]*Position, len(symbols)),
		symbols:       append([]string(nil), symbols...),
		initialCash:   initialCash,
		availableCash: initialCash,
		now:           time.Now,
	}
	sort.Strings(p.symbols)
	for _, s := range p.symbols {
		p.positions[s] = &Position{Symbol: s, Leverage: 1}
	}
	p.timestamp = p.now()
	return p
}

// ExecuteOrder applies one order to the named symbol's position and to
// available cash. The order either fully executes or fully fails: on any
// returned error the portfolio is unchanged.
func (p *Portfolio) ExecuteOrder(o Order) error {
	pos, ok := p.positions[o.Symbol]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSymbol, o.Symbol)
	}
	if o.Quantity == 0 || math.IsNaN(o.Quantity) || math.IsInf(o.Quantity, 0) {
		return fmt.Errorf("%w: quantity %v", ErrInvalidOrder, o.Quantity)
	}
	if o.Price <= 0 || math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
		return fmt.Errorf("%w: price %v", ErrInvalidOrder, o.Price)
	}
	if o.Leverage < 1 || math.IsNaN(o.Leverage) || math.IsInf(o.Leverage, 0) {
		return fmt.Errorf("%w: leverage %v", ErrInvalidOrder, o.Leverage)
	}

	sameDirection := !pos.IsOpen() || (pos.Quantity > 0) == (o.Quantity > 0)
	if sameDirection {
		return p.open(pos, o)
	}
	return p.reduce(pos, o)
}

// open handles a new exposure or a same-direction addition.
func (p *Portfolio) open(pos *Position, o Order) error {
	required := math.Abs(o.Quantity) * o.Price / o.Leverage
	if p.availableCash < required {
		return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, required, p.availableCash)
	}

	newQty := pos.Quantity + o.Quantity
	// Quantity-weighted average of the prior exposure and the incoming fill.
	entry := (math.Abs(pos.Quantity)*pos.EntryPrice + math.Abs(o.Quantity)*o.Price) / math.Abs(newQty)

	pos.Quantity = newQty
	pos.EntryPrice = entry
	pos.Leverage = o.Leverage // last-write-wins
	pos.ProfitTarget = o.ProfitTarget
	pos.StopLoss = o.StopLoss
	pos.Confidence = o.Confidence
	pos.EntryTime = p.now()
	pos.refreshLiquidation()
	pos.mark(o.Price)

	p.availableCash -= required
	p.timestamp = p.now()
	return nil
}

// reduce handles an opposite-direction order against a nonzero position:
// a partial reduction, a full close, or a flip into the other direction.
// All cash effects are computed before any state is touched so a failing
// flip leaves the closing leg unapplied too.
func (p *Portfolio) reduce(pos *Position, o Order) error {
	priorAbs := math.Abs(pos.Quantity)
	priorSign := 1.0
	if pos.IsShort() {
		priorSign = -1
	}

	closeQty := math.Min(math.Abs(o.Quantity), priorAbs)
	realized := closeQty * (o.Price - pos.EntryPrice) * priorSign
	released := pos.Collateral() * closeQty / priorAbs
	settled := p.availableCash + released + realized
	if settled < 0 {
		return fmt.Errorf("%w: realized loss %.2f exceeds released collateral and cash", ErrInsufficientCash, -realized)
	}

	residual := math.Abs(o.Quantity) - closeQty
	if residual > 0 {
		// The excess flips into a new position in the opposite direction,
		// collateralized out of the post-settlement cash.
		required := residual * o.Price / o.Leverage
		if settled < required {
			return fmt.Errorf("%w: need %.2f, have %.2f after close", ErrInsufficientCash, required, settled)
		}
		pos.Quantity = -priorSign * residual
		pos.EntryPrice = o.Price
		pos.Leverage = o.Leverage
		pos.ProfitTarget = o.ProfitTarget
		pos.StopLoss = o.StopLoss
		pos.Confidence = o.Confidence
		pos.EntryTime = p.now()
		p.availableCash = settled - required
	} else if closeQty == priorAbs {
		pos.flatten()
		p.availableCash = settled
	} else {
		// Partial reduction: entry price and leverage are unchanged.
		pos.Quantity = priorSign * (priorAbs - closeQty)
		p.availableCash = settled
	}

	pos.refreshLiquidation()
	pos.mark(o.Price)
	p.timestamp = p.now()
	return nil
}

// MarkToMarket updates current prices and recomputes unrealized PnL for
// every priced position. Cash, quantities, and liquidation prices are
// untouched. Symbols outside the tracked universe and non-positive prices
// are ignored: the orchestration layer may poll a broader universe.
func (p *Portfolio) MarkToMarket(prices map[string]float64) {
	changed := false
	for symbol, price := range prices {
		pos, ok := p.positions[symbol]
		if !ok || price <= 0 {
			continue
		}
		pos.mark(price)
		changed = true
	}
	if changed {
		p.timestamp = p.now()
	}
}

// Position returns a copy of the named symbol's position.
func (p *Portfolio) Position(symbol string) (Position, bool) {
	pos, ok := p.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all positions in stable symbol order.
func (p *Portfolio) Positions() []Position {
	out := make([]Position, 0, len(p.symbols))
	for _, s := range p.symbols {
		out = append(out, *p.positions[s])
	}
	return out
}

// Symbols returns the tracked symbols in stable order.
func (p *Portfolio) Symbols() []string {
	return append([]string(nil), p.symbols...)
}

// AvailableCash returns the cash not tied up as collateral.
func (p *Portfolio) AvailableCash() float64 { return p.availableCash }

// InitialCash returns the starting cash recorded at construction.
func (p *Portfolio) InitialCash() float64 { return p.initialCash }

// Timestamp returns the time of the last state-changing operation.
func (p *Portfolio) Timestamp() time.Time { return p.timestamp }

// TotalUnrealizedPnL sums unrealized PnL across all positions.
func (p *Portfolio) TotalUnrealizedPnL() float64 {
	var total float64
	for _, s := range p.symbols {
		total += p.positions[s].UnrealizedPnL
	}
	return total
}

// TotalAsset values the account: available cash plus, for each open
// position, its collateral and unrealized PnL. Idempotent and
// side-effect-free.
func (p *Portfolio) TotalAsset() float64 {
	total := p.availableCash
	for _, s := range p.symbols {
		pos := p.positions[s]
		total += pos.Collateral() + pos.UnrealizedPnL
	}
	return total
}

// TotalReturnPercent reports the account return relative to initial cash.
// An account constructed with zero initial cash reports zero return.
func (p *Portfolio) TotalReturnPercent() float64 {
	if p.initialCash <= 0 {
		return 0
	}
	return (p.TotalAsset() - p.initialCash) / p.initialCash * 100
}
