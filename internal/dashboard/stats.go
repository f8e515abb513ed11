package dashboard

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
)

// SymbolStats holds aggregated candle statistics for a single symbol.
type SymbolStats struct {
	Symbol   string
	Candles  int
	High     float64
	Low      float64
	Open     float64 // first candle open (by timestamp)
	Close    float64 // last candle close (by timestamp)
	Volume   float64
	Turnover float64 // sum(close * volume)
	MaxGain  float64 // best buy-then-sell return over the window
	MaxLoss  float64 // worst buy-then-sell return over the window
}

// AggregateCandles computes per-symbol statistics from a slice of candles.
// Candles are sorted by timestamp per symbol so gain and loss respect time
// ordering.
func AggregateCandles(bars []domain.Bar) map[string]*SymbolStats {
	groups := make(map[string][]int)
	for i := range bars {
		groups[bars[i].Symbol] = append(groups[bars[i].Symbol], i)
	}

	m := make(map[string]*SymbolStats, len(groups))
	for sym, indices := range groups {
		sort.Slice(indices, func(a, b int) bool {
			return bars[indices[a]].Timestamp.Before(bars[indices[b]].Timestamp)
		})

		s := &SymbolStats{
			Symbol: sym,
			Low:    math.MaxFloat64,
		}
		minLow := math.MaxFloat64
		maxHigh := 0.0

		for j, idx := range indices {
			b := &bars[idx]
			s.Candles++
			s.Volume += b.Volume
			s.Turnover += b.Close * b.Volume
			if b.High > s.High {
				s.High = b.High
			}
			if b.Low < s.Low {
				s.Low = b.Low
			}
			if j == 0 {
				s.Open = b.Open
			}
			s.Close = b.Close

			// Best gain: buy at the lowest low seen so far, sell at this
			// high. Worst loss: buy at the highest high seen so far, sell
			// at this low.
			if minLow < math.MaxFloat64 && minLow > 0 {
				if gain := (b.High - minLow) / minLow; gain > s.MaxGain {
					s.MaxGain = gain
				}
			}
			if maxHigh > 0 {
				if loss := (maxHigh - b.Low) / maxHigh; loss > s.MaxLoss {
					s.MaxLoss = loss
				}
			}
			if b.Low < minLow {
				minLow = b.Low
			}
			if b.High > maxHigh {
				maxHigh = b.High
			}
		}
		if s.Low == math.MaxFloat64 {
			s.Low = 0
		}
		m[sym] = s
	}
	return m
}

// RenderStats writes a per-symbol candle statistics table, sorted by symbol.
func RenderStats(w io.Writer, stats map[string]*SymbolStats) error {
	symbols := make([]string, 0, len(stats))
	for sym := range stats {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tCANDLES\tOPEN\tCLOSE\tHIGH\tLOW\tVOLUME\tMAX GAIN\tMAX LOSS")
	for _, sym := range symbols {
		s := stats[sym]
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f%%\t%.2f%%\n",
			s.Symbol, s.Candles, s.Open, s.Close, s.High, s.Low, s.Volume,
			s.MaxGain*100, s.MaxLoss*100)
	}
	return tw.Flush()
}
