package portfolio

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

var testSymbols = []string{"BTC", "ETH", "SOL"}

func newTestPortfolio(cash float64) *Portfolio {
	p := New(testSymbols, cash)
	// Deterministic clock for assertions on timestamps.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return base }
	return p
}

func TestOpenLongDebitsCollateral(t *testing.T) {
	p := newTestPortfolio(1000)

	err := p.ExecuteOrder(Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 2})
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}

	// Collateral = 1 * 100 / 2 = 50.
	if got := p.AvailableCash(); got != 950 {
		t.Errorf("AvailableCash = %v, want 950", got)
	}
	pos, _ := p.Position("BTC")
	if pos.Quantity != 1 || pos.EntryPrice != 100 || pos.Leverage != 2 {
		t.Errorf("position = %+v", pos)
	}
	if pos.CurrentPrice != 100 {
		t.Errorf("CurrentPrice = %v, want fill price 100", pos.CurrentPrice)
	}
	// No PnL at the fill price.
	if pos.UnrealizedPnL != 0 {
		t.Errorf("UnrealizedPnL = %v, want 0", pos.UnrealizedPnL)
	}
	// TotalAsset is conserved: cash + collateral.
	if got := p.TotalAsset(); got != 1000 {
		t.Errorf("TotalAsset = %v, want 1000", got)
	}
}

func TestInsufficientCashLeavesStateUntouched(t *testing.T) {
	p := newTestPortfolio(0)
	before := p.State()

	err := p.ExecuteOrder(Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 2})
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("err = %v, want ErrInsufficientCash", err)
	}

	if after := p.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("portfolio mutated on rejected order:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestOrderValidation(t *testing.T) {
	p := newTestPortfolio(1000)

	cases := []struct {
		name string
		o    Order
		want error
	}{
		{"unknown symbol", Order{Symbol: "DOGE", Quantity: 1, Price: 10, Leverage: 1}, ErrUnknownSymbol},
		{"zero quantity", Order{Symbol: "BTC", Quantity: 0, Price: 10, Leverage: 1}, ErrInvalidOrder},
		{"zero price", Order{Symbol: "BTC", Quantity: 1, Price: 0, Leverage: 1}, ErrInvalidOrder},
		{"negative price", Order{Symbol: "BTC", Quantity: 1, Price: -5, Leverage: 1}, ErrInvalidOrder},
		{"leverage below one", Order{Symbol: "BTC", Quantity: 1, Price: 10, Leverage: 0.5}, ErrInvalidOrder},
		{"NaN quantity", Order{Symbol: "BTC", Quantity: math.NaN(), Price: 10, Leverage: 1}, ErrInvalidOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := p.State()
			err := p.ExecuteOrder(tc.o)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if after := p.State(); !reflect.DeepEqual(before, after) {
				t.Error("portfolio mutated on rejected order")
			}
		})
	}
}

func TestSameDirectionAddAveragesEntry(t *testing.T) {
	p := newTestPortfolio(1000)

	mustExecute(t, p, Order{Symbol: "ETH", Quantity: 1, Price: 100, Leverage: 2})
	mustExecute(t, p, Order{Symbol: "ETH", Quantity: 1, Price: 110, Leverage: 2})

	pos, _ := p.Position("ETH")
	if pos.Quantity != 2 {
		t.Errorf("Quantity = %v, want 2", pos.Quantity)
	}
	if pos.EntryPrice != 105 {
		t.Errorf("EntryPrice = %v, want 105", pos.EntryPrice)
	}
	// Cash: 1000 - 50 - 55 = 895.
	if got := p.AvailableCash(); got != 895 {
		t.Errorf("AvailableCash = %v, want 895", got)
	}
}

func TestLeverageLastWriteWins(t *testing.T) {
	p := newTestPortfolio(1000)

	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 2})
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 10})

	pos, _ := p.Position("BTC")
	if pos.Leverage != 10 {
		t.Errorf("Leverage = %v, want 10 (last write wins)", pos.Leverage)
	}
	// Second add debits only its own collateral: 1*100/10 = 10.
	if got := p.AvailableCash(); got != 1000-50-10 {
		t.Errorf("AvailableCash = %v, want 940", got)
	}
}

func TestReduceRealizesProportionalPnL(t *testing.T) {
	p := newTestPortfolio(1000)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 2, Price: 100, Leverage: 2})
	// Collateral 100, cash 900.

	// Sell half at 110: realized = 1 * (110-100) = 10, released = 50.
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: -1, Price: 110, Leverage: 2})

	if got := p.AvailableCash(); got != 960 {
		t.Errorf("AvailableCash = %v, want 960", got)
	}
	pos, _ := p.Position("BTC")
	if pos.Quantity != 1 {
		t.Errorf("Quantity = %v, want 1", pos.Quantity)
	}
	if pos.EntryPrice != 100 {
		t.Errorf("EntryPrice = %v, want unchanged 100", pos.EntryPrice)
	}
}

func TestFullCloseRevertsToFlatSlot(t *testing.T) {
	p := newTestPortfolio(1000)
	mustExecute(t, p, Order{Symbol: "SOL", Quantity: -10, Price: 100, Leverage: 5})
	// Short collateral 200, cash 800.

	// Buy back at 90: realized = 10 * (100-90) = 100.
	mustExecute(t, p, Order{Symbol: "SOL", Quantity: 10, Price: 90, Leverage: 5})

	if got := p.AvailableCash(); got != 1100 {
		t.Errorf("AvailableCash = %v, want 1100", got)
	}
	pos, ok := p.Position("SOL")
	if !ok {
		t.Fatal("closed position slot must not disappear")
	}
	if pos.IsOpen() {
		t.Errorf("position still open: %+v", pos)
	}
	if pos.LiquidationPrice != nil {
		t.Error("flat position must have nil liquidation price")
	}
	if pos.UnrealizedPnL != 0 {
		t.Errorf("flat UnrealizedPnL = %v, want 0", pos.UnrealizedPnL)
	}
}

func TestFlipClosesAndOpensOpposite(t *testing.T) {
	p := newTestPortfolio(1000)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 2})
	// Cash 950.

	// Sell 2 at 110: closes the long (realized +10, released 50), opens a
	// short of 1 at entry 110.
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: -2, Price: 110, Leverage: 2})

	pos, _ := p.Position("BTC")
	if pos.Quantity != -1 {
		t.Errorf("Quantity = %v, want -1", pos.Quantity)
	}
	if pos.EntryPrice != 110 {
		t.Errorf("EntryPrice = %v, want 110", pos.EntryPrice)
	}
	// Cash: 950 + 50 + 10 - 55 = 955.
	if got := p.AvailableCash(); got != 955 {
		t.Errorf("AvailableCash = %v, want 955", got)
	}
}

func TestFlipIsAtomicOnInsolvency(t *testing.T) {
	p := newTestPortfolio(100)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 2})
	// Cash 50.

	before := p.State()
	// Closing releases 50 + realizes 0, but the residual 99 @ 100 / 2 needs
	// 4950 collateral: the whole order must fail, including the closing leg.
	err := p.ExecuteOrder(Order{Symbol: "BTC", Quantity: -100, Price: 100, Leverage: 2})
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("err = %v, want ErrInsufficientCash", err)
	}
	if after := p.State(); !reflect.DeepEqual(before, after) {
		t.Error("flip partially applied on insolvency")
	}
}

func TestCloseRejectedWhenLossExceedsCash(t *testing.T) {
	p := newTestPortfolio(100)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 10, Price: 100, Leverage: 10})
	// Collateral 100, cash 0.

	before := p.State()
	// Closing at 80 realizes -200 against 100 released collateral: cash
	// would go negative, so the close is rejected.
	err := p.ExecuteOrder(Order{Symbol: "BTC", Quantity: -10, Price: 80, Leverage: 10})
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("err = %v, want ErrInsufficientCash", err)
	}
	if after := p.State(); !reflect.DeepEqual(before, after) {
		t.Error("portfolio mutated on rejected close")
	}
}

func TestCashNeverNegative(t *testing.T) {
	p := newTestPortfolio(500)
	orders := []Order{
		{Symbol: "BTC", Quantity: 2, Price: 100, Leverage: 1},
		{Symbol: "ETH", Quantity: -30, Price: 50, Leverage: 5},
		{Symbol: "BTC", Quantity: -1, Price: 95, Leverage: 1},
		{Symbol: "ETH", Quantity: 50, Price: 48, Leverage: 5},
		{Symbol: "SOL", Quantity: 100, Price: 100, Leverage: 2},
	}
	for _, o := range orders {
		_ = p.ExecuteOrder(o) // some may be rejected; cash must stay >= 0
		if p.AvailableCash() < 0 {
			t.Fatalf("cash went negative (%v) after %+v", p.AvailableCash(), o)
		}
	}
}

func TestMarkToMarket(t *testing.T) {
	p := newTestPortfolio(1000)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 2})
	mustExecute(t, p, Order{Symbol: "ETH", Quantity: -10, Price: 50, Leverage: 5})
	cash := p.AvailableCash()

	p.MarkToMarket(map[string]float64{"BTC": 110, "ETH": 55, "XRP": 1.0})

	btc, _ := p.Position("BTC")
	if btc.UnrealizedPnL != 10 {
		t.Errorf("BTC UnrealizedPnL = %v, want 10", btc.UnrealizedPnL)
	}
	eth, _ := p.Position("ETH")
	// Short: -10 * (55-50) = -50.
	if eth.UnrealizedPnL != -50 {
		t.Errorf("ETH UnrealizedPnL = %v, want -50", eth.UnrealizedPnL)
	}
	if p.AvailableCash() != cash {
		t.Error("mark-to-market must not touch cash")
	}

	// Liquidation price is untouched by price updates.
	if btc.LiquidationPrice == nil || *btc.LiquidationPrice != 50 {
		t.Errorf("BTC LiquidationPrice = %v, want 50", btc.LiquidationPrice)
	}
}

func TestMarkToMarketIdempotent(t *testing.T) {
	p := newTestPortfolio(1000)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 2})

	prices := map[string]float64{"BTC": 123.45}
	p.MarkToMarket(prices)
	first := p.State()
	p.MarkToMarket(prices)
	second := p.State()

	if !reflect.DeepEqual(first.Positions, second.Positions) {
		t.Error("repeated mark-to-market with unchanged prices changed positions")
	}
	if first.TotalAsset != second.TotalAsset {
		t.Errorf("TotalAsset drifted: %v -> %v", first.TotalAsset, second.TotalAsset)
	}
}

func TestMarkToMarketIgnoresBadPrices(t *testing.T) {
	p := newTestPortfolio(1000)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 2})

	p.MarkToMarket(map[string]float64{"BTC": -1})
	pos, _ := p.Position("BTC")
	if pos.CurrentPrice != 100 {
		t.Errorf("non-positive price applied: CurrentPrice = %v", pos.CurrentPrice)
	}
}

func TestTotalReturnPercent(t *testing.T) {
	p := newTestPortfolio(1000)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 1})
	p.MarkToMarket(map[string]float64{"BTC": 200})

	// TotalAsset = 900 cash + 100 collateral + 100 PnL = 1100.
	if got := p.TotalReturnPercent(); got != 10 {
		t.Errorf("TotalReturnPercent = %v, want 10", got)
	}

	// Zero initial cash reports zero return, not a division error.
	z := New([]string{"BTC"}, 0)
	if got := z.TotalReturnPercent(); got != 0 {
		t.Errorf("zero-cash TotalReturnPercent = %v, want 0", got)
	}
}

func TestTotalAssetIdempotent(t *testing.T) {
	p := newTestPortfolio(1000)
	mustExecute(t, p, Order{Symbol: "ETH", Quantity: 3, Price: 70, Leverage: 7})
	p.MarkToMarket(map[string]float64{"ETH": 71.5})

	a := p.TotalAsset()
	b := p.TotalAsset()
	if a != b {
		t.Errorf("TotalAsset not bit-identical across calls: %v vs %v", a, b)
	}
}

func TestStateRoundTrip(t *testing.T) {
	p := newTestPortfolio(10000)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 0.5, Price: 45000, Leverage: 10})
	mustExecute(t, p, Order{Symbol: "ETH", Quantity: -10, Price: 3000, Leverage: 5})
	p.MarkToMarket(map[string]float64{"BTC": 45500, "ETH": 2950})

	restored, err := FromState(p.State(), testSymbols)
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}
	if restored.AvailableCash() != p.AvailableCash() {
		t.Errorf("AvailableCash = %v, want %v", restored.AvailableCash(), p.AvailableCash())
	}
	if restored.TotalAsset() != p.TotalAsset() {
		t.Errorf("TotalAsset = %v, want %v", restored.TotalAsset(), p.TotalAsset())
	}
	if !reflect.DeepEqual(restored.Positions(), p.Positions()) {
		t.Errorf("positions differ after round trip:\ngot  %+v\nwant %+v", restored.Positions(), p.Positions())
	}
}

func TestFromStateRejectsMalformed(t *testing.T) {
	open := func(sym string, qty, entry, lev float64) Position {
		return Position{Symbol: sym, Quantity: qty, EntryPrice: entry, CurrentPrice: entry, Leverage: lev}
	}

	cases := []struct {
		name  string
		state State
	}{
		{"negative available cash", State{InitialCash: 100, AvailableCash: -1}},
		{"negative initial cash", State{InitialCash: -100, AvailableCash: 0}},
		{"unknown symbol", State{InitialCash: 100, AvailableCash: 100,
			Positions: []Position{open("DOGE", 1, 10, 2)}}},
		{"open position without entry price", State{InitialCash: 100, AvailableCash: 100,
			Positions: []Position{open("BTC", 1, 0, 2)}}},
		{"open position with leverage below one", State{InitialCash: 100, AvailableCash: 100,
			Positions: []Position{open("BTC", 1, 10, 0)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromState(tc.state, testSymbols); !errors.Is(err, ErrMalformedSnapshot) {
				t.Errorf("err = %v, want ErrMalformedSnapshot", err)
			}
		})
	}
}

func TestReportView(t *testing.T) {
	p := newTestPortfolio(1000)
	mustExecute(t, p, Order{Symbol: "BTC", Quantity: 1, Price: 100, Leverage: 2})

	r := p.Report()
	if r.AvailableCash != 950 || r.TotalAsset != 1000 {
		t.Errorf("report = %+v", r)
	}
	if len(r.OpenPositions()) != 1 {
		t.Errorf("OpenPositions = %d, want 1", len(r.OpenPositions()))
	}
	if _, ok := r.Position("ETH"); !ok {
		t.Error("report must include flat slots")
	}
}

func mustExecute(t *testing.T, p *Portfolio, o Order) {
	t.Helper()
	if err := p.ExecuteOrder(o); err != nil {
		t.Fatalf("ExecuteOrder(%+v): %v", o, err)
	}
}
