// Package dashboard renders the account view and per-symbol candle
// statistics for the console report.
package dashboard

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/portfolio"
)

// Render writes a human-readable account summary and position table.
func Render(w io.Writer, r portfolio.Report) error {
	fmt.Fprintln(w, "ACCOUNT SUMMARY")
	if !r.Timestamp.IsZero() {
		fmt.Fprintf(w, "  As of:           %s\n", r.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "  Initial Cash:    %s\n", FormatMoney(r.InitialCash))
	fmt.Fprintf(w, "  Available Cash:  %s\n", FormatMoney(r.AvailableCash))
	fmt.Fprintf(w, "  Account Value:   %s\n", FormatMoney(r.TotalAsset))
	fmt.Fprintf(w, "  Unrealized PnL:  %s\n", FormatMoney(r.TotalUnrealizedPnL))
	fmt.Fprintf(w, "  Total Return:    %s\n", FormatPercent(r.TotalReturnPercent))
	fmt.Fprintln(w)

	open := r.OpenPositions()
	if len(open) == 0 {
		fmt.Fprintln(w, "No open positions.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tQTY\tENTRY\tCURRENT\tLEV\tLIQ\tPNL\tNOTIONAL")
	for _, pos := range open {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%s\t%s\t%s\t%s\n",
			pos.Symbol,
			FormatQuantity(pos.Quantity),
			pos.EntryPrice,
			pos.CurrentPrice,
			FormatLeverage(pos.Leverage),
			FormatPrice(pos.LiquidationPrice),
			FormatMoney(pos.UnrealizedPnL),
			FormatMoney(pos.NotionalUSD()),
		)
	}
	return tw.Flush()
}
