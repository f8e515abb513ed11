package decision

import (
	"context"
	"testing"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
)

func momentumAccount(cash float64) portfolio.Report {
	return portfolio.Report{InitialCash: cash, AvailableCash: cash, TotalAsset: cash}
}

func TestMomentumBuysOversoldAboveTrend(t *testing.T) {
	p := NewMomentumProvider(MomentumConfig{CashFraction: 0.1, Leverage: 5, RSIOversold: 30, RSIOverbought: 70})
	market := map[string]domain.MarketSnapshot{
		"BTC": {Symbol: "BTC", Interval: "1h", CurrentPrice: 100, EMA20: 95, RSI7: 25, ATR14: 2},
	}

	decisions, err := p.Decide(context.Background(), market, momentumAccount(1000))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	d := decisions["BTC"]
	if d.Signal != domain.SignalBuy {
		t.Fatalf("signal = %q, want buy", d.Signal)
	}
	// Collateral 10% of 1000 at 5x leverage and price 100: qty = 100*5/100.
	if d.Quantity != 5 {
		t.Errorf("quantity = %v, want 5", d.Quantity)
	}
	if d.StopLoss != 98 || d.ProfitTarget != 104 {
		t.Errorf("stops = (%v, %v), want (98, 104)", d.StopLoss, d.ProfitTarget)
	}
	if err := Validate(d); err != nil {
		t.Errorf("momentum decision failed validation: %v", err)
	}
}

func TestMomentumSellsOverboughtBelowTrend(t *testing.T) {
	p := NewMomentumProvider(DefaultMomentumConfig())
	market := map[string]domain.MarketSnapshot{
		"ETH": {Symbol: "ETH", Interval: "1h", CurrentPrice: 100, EMA20: 105, RSI7: 80, ATR14: 3},
	}

	decisions, err := p.Decide(context.Background(), market, momentumAccount(1000))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	d := decisions["ETH"]
	if d.Signal != domain.SignalSell {
		t.Fatalf("signal = %q, want sell", d.Signal)
	}
	if d.Quantity >= 0 {
		t.Errorf("sell quantity = %v, want negative", d.Quantity)
	}
	if d.StopLoss != 103 || d.ProfitTarget != 94 {
		t.Errorf("stops = (%v, %v), want (103, 94)", d.StopLoss, d.ProfitTarget)
	}
}

func TestMomentumHoldsInNeutralConditions(t *testing.T) {
	p := NewMomentumProvider(DefaultMomentumConfig())
	market := map[string]domain.MarketSnapshot{
		// Oversold but below trend: no entry.
		"BTC": {Symbol: "BTC", Interval: "1h", CurrentPrice: 90, EMA20: 95, RSI7: 25, ATR14: 2},
		// Neutral RSI.
		"ETH": {Symbol: "ETH", Interval: "1h", CurrentPrice: 100, EMA20: 95, RSI7: 50, ATR14: 2},
		// No price data.
		"SOL": {Symbol: "SOL", Interval: "1h"},
	}

	decisions, err := p.Decide(context.Background(), market, momentumAccount(1000))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	for symbol, d := range decisions {
		if d.Signal != domain.SignalHold {
			t.Errorf("%s signal = %q, want hold", symbol, d.Signal)
		}
	}
}

func TestMomentumClosesUnwoundPosition(t *testing.T) {
	p := NewMomentumProvider(DefaultMomentumConfig())
	account := momentumAccount(1000)
	account.Positions = []portfolio.Position{
		{Symbol: "BTC", Quantity: 1, EntryPrice: 95, CurrentPrice: 100, Leverage: 5},
	}

	market := map[string]domain.MarketSnapshot{
		"BTC": {Symbol: "BTC", Interval: "1h", CurrentPrice: 100, EMA20: 95, RSI7: 55, ATR14: 2},
	}
	decisions, err := p.Decide(context.Background(), market, account)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if got := decisions["BTC"].Signal; got != domain.SignalClose {
		t.Errorf("signal = %q, want close once RSI crosses back through 50", got)
	}

	// A long whose RSI is still depressed stays open.
	market["BTC"] = domain.MarketSnapshot{Symbol: "BTC", Interval: "1h", CurrentPrice: 100, EMA20: 95, RSI7: 40, ATR14: 2}
	decisions, err = p.Decide(context.Background(), market, account)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if got := decisions["BTC"].Signal; got != domain.SignalHold {
		t.Errorf("signal = %q, want hold while RSI stays below 50", got)
	}
}
