package portfolio

import "time"

// Report is a read-only view of the account for reporting, dashboards, and
// decision-provider prompts.
type Report struct {
	Timestamp          time.Time
	InitialCash        float64
	AvailableCash      float64
	TotalAsset         float64
	TotalUnrealizedPnL float64
	TotalReturnPercent float64
	Positions          []Position
}

// Report produces the current account view. Like TotalAsset it is
// idempotent and side-effect-free.
func (p *Portfolio) Report() Report {
	return Report{
		Timestamp:          p.timestamp,
		InitialCash:        p.initialCash,
		AvailableCash:      p.availableCash,
		TotalAsset:         p.TotalAsset(),
		TotalUnrealizedPnL: p.TotalUnrealizedPnL(),
		TotalReturnPercent: p.TotalReturnPercent(),
		Positions:          p.Positions(),
	}
}

// OpenPositions filters the report's positions down to those with nonzero
// exposure.
func (r Report) OpenPositions() []Position {
	var open []Position
	for _, pos := range r.Positions {
		if pos.IsOpen() {
			open = append(open, pos)
		}
	}
	return open
}

// Position returns the report's entry for one symbol.
func (r Report) Position(symbol string) (Position, bool) {
	for _, pos := range r.Positions {
		if pos.Symbol == symbol {
			return pos, true
		}
	}
	return Position{}, false
}
