package market

import (
	"math"
	"testing"
	"time"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
)

func constantBars(n int, close float64) []domain.Bar {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := range bars {
		bars[i] = domain.Bar{
			Symbol:    "BTC",
			Interval:  "1h",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      close,
			High:      close + 1,
			Low:       close - 1,
			Close:     close,
			Volume:    100,
		}
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEMAConstantSeries(t *testing.T) {
	values := []float64{50, 50, 50, 50, 50}
	for i, v := range EMA(values, 3) {
		if !almostEqual(v, 50) {
			t.Errorf("EMA[%d] = %v, want 50", i, v)
		}
	}
}

func TestEMAFollowsStep(t *testing.T) {
	// A step up must pull the average strictly toward the new level
	// without overshooting it.
	values := []float64{10, 10, 10, 20, 20, 20}
	ema := EMA(values, 3)
	for i := 3; i < len(ema); i++ {
		if ema[i] <= ema[i-1] {
			t.Errorf("EMA[%d] = %v not rising after step (prev %v)", i, ema[i], ema[i-1])
		}
		if ema[i] > 20 {
			t.Errorf("EMA[%d] = %v overshoots the step level", i, ema[i])
		}
	}
	if len(ema) != len(values) {
		t.Errorf("EMA length = %d, want %d", len(ema), len(values))
	}
}

func TestRSIExtremes(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	rsi := RSI(rising, 7)
	if got := rsi[len(rsi)-1]; !almostEqual(got, 100) {
		t.Errorf("RSI of strictly rising series = %v, want 100", got)
	}

	falling := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	rsi = RSI(falling, 7)
	if got := rsi[len(rsi)-1]; !almostEqual(got, 0) {
		t.Errorf("RSI of strictly falling series = %v, want 0", got)
	}

	flat := []float64{5, 5, 5, 5}
	for i, v := range RSI(flat, 7) {
		if !almostEqual(v, 50) {
			t.Errorf("RSI[%d] of flat series = %v, want 50", i, v)
		}
	}
}

func TestMACDConstantSeriesIsZero(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	line, signal := MACD(closes)
	last := len(closes) - 1
	if !almostEqual(line[last], 0) || !almostEqual(signal[last], 0) {
		t.Errorf("MACD of constant series = (%v, %v), want (0, 0)", line[last], signal[last])
	}
}

func TestATRConstantRange(t *testing.T) {
	bars := constantBars(10, 100)
	for i, v := range ATR(bars, 3) {
		if !almostEqual(v, 2) {
			t.Errorf("ATR[%d] = %v, want 2 for constant 2-point range", i, v)
		}
	}
}

func TestMidPrices(t *testing.T) {
	bars := constantBars(3, 100)
	for i, v := range MidPrices(bars) {
		if !almostEqual(v, 100) {
			t.Errorf("MidPrices[%d] = %v, want 100", i, v)
		}
	}
}

func TestBuildSnapshot(t *testing.T) {
	bars := constantBars(60, 100)
	snap := BuildSnapshot("BTC", "1h", bars)

	if snap.Symbol != "BTC" || snap.Interval != "1h" {
		t.Errorf("identity = %s/%s, want BTC/1h", snap.Symbol, snap.Interval)
	}
	if snap.CurrentPrice != 100 {
		t.Errorf("CurrentPrice = %v, want 100", snap.CurrentPrice)
	}
	if !almostEqual(snap.AverageVolume, 100) || snap.CurrentVolume != 100 {
		t.Errorf("volume = (%v avg, %v current), want 100/100", snap.AverageVolume, snap.CurrentVolume)
	}
	if !almostEqual(snap.EMA20, 100) || !almostEqual(snap.EMA50, 100) {
		t.Errorf("EMAs = (%v, %v), want 100", snap.EMA20, snap.EMA50)
	}
	if !almostEqual(snap.MACD, 0) || !almostEqual(snap.MACDSignal, 0) {
		t.Errorf("MACD = (%v, %v), want 0", snap.MACD, snap.MACDSignal)
	}
	if !almostEqual(snap.RSI7, 50) || !almostEqual(snap.RSI14, 50) {
		t.Errorf("RSIs = (%v, %v), want 50 for flat closes", snap.RSI7, snap.RSI14)
	}
	if !almostEqual(snap.ATR3, 2) || !almostEqual(snap.ATR14, 2) {
		t.Errorf("ATRs = (%v, %v), want 2", snap.ATR3, snap.ATR14)
	}

	for name, series := range map[string][]float64{
		"MidPrices":   snap.MidPrices,
		"EMA20Series": snap.EMA20Series,
		"RSI7Series":  snap.RSI7Series,
		"ATR14Series": snap.ATR14Series,
	} {
		if len(series) != seriesTail {
			t.Errorf("%s length = %d, want %d", name, len(series), seriesTail)
		}
	}
}

func TestBuildSnapshotEmpty(t *testing.T) {
	snap := BuildSnapshot("BTC", "1h", nil)
	if snap.CurrentPrice != 0 || snap.MidPrices != nil {
		t.Errorf("empty snapshot not zero: %+v", snap)
	}
}
