package decision

import (
	"fmt"
	"strings"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
)

// intervalNames maps candle intervals to prose for prompts.
var intervalNames = map[string]string{
	"1m":  "1-minute",
	"3m":  "3-minute",
	"5m":  "5-minute",
	"15m": "15-minute",
	"30m": "30-minute",
	"1h":  "hourly",
	"4h":  "4-hour",
	"1d":  "daily",
}

// RenderAccount formats the account view as a concise plain-text summary.
func RenderAccount(r portfolio.Report) string {
	var b strings.Builder
	b.WriteString("HERE IS YOUR ACCOUNT INFORMATION & PERFORMANCE\n")
	if !r.Timestamp.IsZero() {
		fmt.Fprintf(&b, "As of: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "Current Total Return (percent): %.2f%%\n", r.TotalReturnPercent)
	fmt.Fprintf(&b, "Available Cash: $%.2f\n", r.AvailableCash)
	fmt.Fprintf(&b, "Current Account Value: $%.2f\n", r.TotalAsset)
	fmt.Fprintf(&b, "Total Unrealized PnL: $%.2f\n", r.TotalUnrealizedPnL)
	b.WriteString("Current live positions & performance:\n\n")

	open := r.OpenPositions()
	if len(open) == 0 {
		b.WriteString("(No open positions)\n")
		return b.String()
	}
	for _, pos := range open {
		fmt.Fprintf(&b, "Symbol: %s, Qty: %.4f, Entry: $%.2f, Current: $%.2f, PnL: $%.2f, Notional: $%.2f, Risk: $%.2f, Leverage: %gx",
			pos.Symbol, pos.Quantity, pos.EntryPrice, pos.CurrentPrice,
			pos.UnrealizedPnL, pos.NotionalUSD(), pos.RiskUSD(), pos.Leverage)
		if pos.Confidence > 0 {
			fmt.Fprintf(&b, ", Confidence: %.2f", pos.Confidence)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderMarket formats one symbol's indicator snapshot as plain text.
func RenderMarket(m domain.MarketSnapshot) string {
	interval := intervalNames[m.Interval]
	if interval == "" {
		interval = m.Interval
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ALL %s DATA\n", strings.ToUpper(m.Symbol))
	fmt.Fprintf(&b, "current_price = %.3f, current_ema20 = %.3f, current_macd = %.3f, current_rsi (7 period) = %.3f\n",
		m.CurrentPrice, m.EMA20, m.MACD, m.RSI7)
	fmt.Fprintf(&b, "Volume: Latest: %.2f  Average: %.2f\n", m.CurrentVolume, m.AverageVolume)
	fmt.Fprintf(&b, "Funding Rate: %.6f\n", m.FundingRate)
	fmt.Fprintf(&b, "Intraday series (%s intervals, oldest to latest):\n", interval)
	fmt.Fprintf(&b, "%s mid prices: [%s]\n", strings.ToUpper(m.Symbol), renderSeries(m.MidPrices, 2))
	fmt.Fprintf(&b, "EMA indicators (20-period): [%s]\n", renderSeries(m.EMA20Series, 3))
	fmt.Fprintf(&b, "MACD indicators: [%s]\n", renderSeries(m.MACDSeries, 3))
	fmt.Fprintf(&b, "RSI indicators (7-Period): [%s]\n", renderSeries(m.RSI7Series, 3))
	fmt.Fprintf(&b, "RSI indicators (14-Period): [%s]", renderSeries(m.RSI14Series, 3))
	return b.String()
}

func renderSeries(series []float64, decimals int) string {
	parts := make([]string, len(series))
	for i, v := range series {
		parts[i] = fmt.Sprintf("%.*f", decimals, v)
	}
	return strings.Join(parts, ", ")
}
