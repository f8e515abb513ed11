package portfolio

import (
	"fmt"
	"time"
)

// State is the serializable form of a Portfolio, matching the snapshot file
// shape. TotalAsset is included for human inspection of the file; it is
// recomputed on load rather than trusted.
type State struct {
	Positions     []Position `json:"positions"`
	Timestamp     time.Time  `json:"timestamp"`
	InitialCash   float64    `json:"initial_cash"`
	AvailableCash float64    `json:"available_cash"`
	TotalAsset    float64    `json:"total_asset"`
}

// State captures the full account state for persistence.
func (p *Portfolio) State() State {
	return State{
		Positions:     p.Positions(),
		Timestamp:     p.timestamp,
		InitialCash:   p.initialCash,
		AvailableCash: p.availableCash,
		TotalAsset:    p.TotalAsset(),
	}
}

// FromState reconstructs a Portfolio from persisted state against the
// configured symbol universe. Structural fields are validated; derived
// fields (unrealized PnL, liquidation price) are recomputed rather than
// trusted. Symbols in the universe but absent from the state start flat.
func FromState(s State, symbols []string) (*Portfolio, error) {
	if s.InitialCash < 0 {
		return nil, fmt.Errorf("%w: negative initial_cash %v", ErrMalformedSnapshot, s.InitialCash)
	}
	if s.AvailableCash < 0 {
		return nil, fmt.Errorf("%w: negative available_cash %v", ErrMalformedSnapshot, s.AvailableCash)
	}

	p := New(symbols, s.InitialCash)
	p.availableCash = s.AvailableCash
	if !s.Timestamp.IsZero() {
		p.timestamp = s.Timestamp
	}

	for _, ps := range s.Positions {
		slot, ok := p.positions[ps.Symbol]
		if !ok {
			return nil, fmt.Errorf("%w: unknown symbol %q in positions", ErrMalformedSnapshot, ps.Symbol)
		}
		if ps.Quantity != 0 {
			if ps.EntryPrice <= 0 {
				return nil, fmt.Errorf("%w: %s open with entry_price %v", ErrMalformedSnapshot, ps.Symbol, ps.EntryPrice)
			}
			if ps.Leverage < 1 {
				return nil, fmt.Errorf("%w: %s open with leverage %v", ErrMalformedSnapshot, ps.Symbol, ps.Leverage)
			}
		}
		*slot = ps
		if slot.Leverage == 0 {
			slot.Leverage = 1
		}
		slot.refreshLiquidation()
		slot.UnrealizedPnL = slot.unrealized()
	}
	return p, nil
}
