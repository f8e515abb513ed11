// Package decision turns market snapshots and the account view into
// per-symbol trade decisions. Providers are interchangeable: a deterministic
// momentum strategy, a random baseline, and an LLM-backed provider.
package decision

import (
	"context"
	"fmt"
	"math"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
)

// Provider produces one decision per symbol present in market.
type Provider interface {
	Decide(ctx context.Context, market map[string]domain.MarketSnapshot, account portfolio.Report) (map[string]domain.Decision, error)
}

// Validate checks a decision before it reaches the execution layer. It
// rejects unknown signal tokens and numeric fields that cannot form a valid
// order. Hold decisions only need a valid token.
func Validate(d domain.Decision) error {
	if !d.Signal.Valid() {
		return fmt.Errorf("unknown signal %q for %s", d.Signal, d.Symbol)
	}
	if d.Symbol == "" {
		return fmt.Errorf("decision missing symbol")
	}
	if d.Signal == domain.SignalHold || d.Signal == domain.SignalClose {
		return nil
	}

	if d.Quantity == 0 || math.IsNaN(d.Quantity) || math.IsInf(d.Quantity, 0) {
		return fmt.Errorf("%s decision for %s has invalid quantity %v", d.Signal, d.Symbol, d.Quantity)
	}
	if d.Leverage < 1 || math.IsNaN(d.Leverage) || math.IsInf(d.Leverage, 0) {
		return fmt.Errorf("%s decision for %s has invalid leverage %v", d.Signal, d.Symbol, d.Leverage)
	}
	if d.EntryPrice < 0 || math.IsNaN(d.EntryPrice) || math.IsInf(d.EntryPrice, 0) {
		return fmt.Errorf("%s decision for %s has invalid entry price %v", d.Signal, d.Symbol, d.EntryPrice)
	}
	return nil
}
