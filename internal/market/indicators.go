package market

import (
	"math"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
)

// EMA returns the exponential moving average of values with the given
// period. The output has the same length as the input; the series is seeded
// with the first value.
func EMA(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	alpha := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI returns the relative strength index of closes over the given period
// using Wilder's smoothing. A series with no losses reads 100, no gains 0.
func RSI(closes []float64, period int) []float64 {
	if len(closes) == 0 || period <= 0 {
		return nil
	}
	out := make([]float64, len(closes))
	out[0] = 50 // no change information yet

	var avgGain, avgLoss float64
	alpha := 1.0 / float64(period)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss

		if avgLoss == 0 {
			if avgGain == 0 {
				out[i] = 50
			} else {
				out[i] = 100
			}
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD returns the MACD line (EMA12 - EMA26) and its EMA9 signal line.
func MACD(closes []float64) (line, signal []float64) {
	if len(closes) == 0 {
		return nil, nil
	}
	fast := EMA(closes, 12)
	slow := EMA(closes, 26)
	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signal = EMA(line, 9)
	return line, signal
}

// ATR returns the average true range over the given period using Wilder's
// smoothing.
func ATR(bars []domain.Bar, period int) []float64 {
	if len(bars) == 0 || period <= 0 {
		return nil
	}
	out := make([]float64, len(bars))
	out[0] = bars[0].High - bars[0].Low

	alpha := 1.0 / float64(period)
	for i := 1; i < len(bars); i++ {
		tr := trueRange(bars[i], bars[i-1].Close)
		out[i] = alpha*tr + (1-alpha)*out[i-1]
	}
	return out
}

func trueRange(b domain.Bar, prevClose float64) float64 {
	return math.Max(b.High-b.Low,
		math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
}

// MidPrices returns the (high+low)/2 midpoint of each bar.
func MidPrices(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = (b.High + b.Low) / 2
	}
	return out
}

func closes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
