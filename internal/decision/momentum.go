package decision

import (
	"context"
	"fmt"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
)

// Compile-time interface check.
var _ Provider = (*MomentumProvider)(nil)

// MomentumConfig tunes the deterministic momentum strategy.
type MomentumConfig struct {
	// CashFraction is the share of available cash committed as collateral
	// per new position.
	CashFraction float64
	// Leverage applied to every order.
	Leverage float64
	// RSIOversold and RSIOverbought are the 7-period RSI entry thresholds.
	RSIOversold   float64
	RSIOverbought float64
}

// DefaultMomentumConfig mirrors common mean-reversion thresholds.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		CashFraction:  0.1,
		Leverage:      5,
		RSIOversold:   30,
		RSIOverbought: 70,
	}
}

// MomentumProvider trades 7-period RSI extremes filtered by the EMA20 trend:
// it buys oversold symbols trading above their EMA20, sells overbought
// symbols trading below it, and closes positions whose RSI has crossed back
// through neutral.
type MomentumProvider struct {
	cfg MomentumConfig
}

// NewMomentumProvider creates a MomentumProvider. Zero-valued config fields
// fall back to the defaults.
func NewMomentumProvider(cfg MomentumConfig) *MomentumProvider {
	def := DefaultMomentumConfig()
	if cfg.CashFraction <= 0 {
		cfg.CashFraction = def.CashFraction
	}
	if cfg.Leverage < 1 {
		cfg.Leverage = def.Leverage
	}
	if cfg.RSIOversold <= 0 {
		cfg.RSIOversold = def.RSIOversold
	}
	if cfg.RSIOverbought <= 0 {
		cfg.RSIOverbought = def.RSIOverbought
	}
	return &MomentumProvider{cfg: cfg}
}

func (p *MomentumProvider) Decide(_ context.Context, market map[string]domain.MarketSnapshot, account portfolio.Report) (map[string]domain.Decision, error) {
	decisions := make(map[string]domain.Decision, len(market))
	for symbol, snap := range market {
		decisions[symbol] = p.decideSymbol(symbol, snap, account)
	}
	return decisions, nil
}

func (p *MomentumProvider) decideSymbol(symbol string, snap domain.MarketSnapshot, account portfolio.Report) domain.Decision {
	d := domain.Decision{
		Symbol:     symbol,
		Signal:     domain.SignalHold,
		Leverage:   p.cfg.Leverage,
		EntryPrice: snap.CurrentPrice,
	}
	if snap.CurrentPrice <= 0 {
		return d
	}

	pos, held := account.Position(symbol)
	if held && pos.IsOpen() {
		// Exit once the extreme that justified the entry has unwound.
		if (pos.IsLong() && snap.RSI7 >= 50) || (pos.IsShort() && snap.RSI7 <= 50) {
			d.Signal = domain.SignalClose
		}
		return d
	}

	switch {
	case snap.RSI7 <= p.cfg.RSIOversold && snap.CurrentPrice > snap.EMA20:
		d.Signal = domain.SignalBuy
	case snap.RSI7 >= p.cfg.RSIOverbought && snap.CurrentPrice < snap.EMA20:
		d.Signal = domain.SignalSell
	default:
		return d
	}

	// Size so the position's collateral is CashFraction of available cash.
	collateral := account.AvailableCash * p.cfg.CashFraction
	quantity := collateral * p.cfg.Leverage / snap.CurrentPrice
	if quantity <= 0 {
		d.Signal = domain.SignalHold
		return d
	}

	if d.Signal == domain.SignalSell {
		quantity = -quantity
		d.ProfitTarget = snap.CurrentPrice - 2*snap.ATR14
		d.StopLoss = snap.CurrentPrice + snap.ATR14
		d.InvalidationCondition = fmt.Sprintf("If the price closes above %.2f on a %s candle", d.StopLoss, snap.Interval)
	} else {
		d.ProfitTarget = snap.CurrentPrice + 2*snap.ATR14
		d.StopLoss = snap.CurrentPrice - snap.ATR14
		d.InvalidationCondition = fmt.Sprintf("If the price closes below %.2f on a %s candle", d.StopLoss, snap.Interval)
	}

	d.Quantity = quantity
	d.RiskUSD = snap.ATR14 * absf(quantity) * p.cfg.Leverage
	d.Confidence = confidenceFromRSI(snap.RSI7, p.cfg)
	return d
}

// confidenceFromRSI scales confidence with how far the RSI sits beyond its
// threshold, clamped to [0.5, 1].
func confidenceFromRSI(rsi float64, cfg MomentumConfig) float64 {
	var excess float64
	switch {
	case rsi <= cfg.RSIOversold:
		excess = (cfg.RSIOversold - rsi) / cfg.RSIOversold
	case rsi >= cfg.RSIOverbought:
		excess = (rsi - cfg.RSIOverbought) / (100 - cfg.RSIOverbought)
	}
	c := 0.5 + 0.5*excess
	if c > 1 {
		c = 1
	}
	return c
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
