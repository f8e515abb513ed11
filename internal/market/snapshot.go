package market

import (
	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
)

// seriesTail is how many trailing indicator points a snapshot carries.
const seriesTail = 10

// BuildSnapshot derives a MarketSnapshot from a candle history, oldest bar
// first. It is a pure function of its inputs; funding rate is filled in by
// the caller when available. Returns a zero snapshot when bars is empty.
func BuildSnapshot(symbol, interval string, bars []domain.Bar) domain.MarketSnapshot {
	snap := domain.MarketSnapshot{Symbol: symbol, Interval: interval}
	if len(bars) == 0 {
		return snap
	}

	cl := closes(bars)
	ema20 := EMA(cl, 20)
	ema50 := EMA(cl, 50)
	macd, macdSignal := MACD(cl)
	rsi7 := RSI(cl, 7)
	rsi14 := RSI(cl, 14)
	atr3 := ATR(bars, 3)
	atr14 := ATR(bars, 14)

	last := len(bars) - 1
	snap.CurrentPrice = bars[last].Close
	snap.CurrentVolume = bars[last].Volume

	var totalVolume float64
	for _, b := range bars {
		totalVolume += b.Volume
	}
	snap.AverageVolume = totalVolume / float64(len(bars))

	snap.EMA20 = ema20[last]
	snap.EMA50 = ema50[last]
	snap.MACD = macd[last]
	snap.MACDSignal = macdSignal[last]
	snap.RSI7 = rsi7[last]
	snap.RSI14 = rsi14[last]
	snap.ATR3 = atr3[last]
	snap.ATR14 = atr14[last]

	snap.MidPrices = tail(MidPrices(bars))
	snap.EMA20Series = tail(ema20)
	snap.EMA50Series = tail(ema50)
	snap.MACDSeries = tail(macd)
	snap.RSI7Series = tail(rsi7)
	snap.RSI14Series = tail(rsi14)
	snap.ATR3Series = tail(atr3)
	snap.ATR14Series = tail(atr14)
	return snap
}

func tail(series []float64) []float64 {
	if len(series) <= seriesTail {
		return series
	}
	return series[len(series)-seriesTail:]
}
