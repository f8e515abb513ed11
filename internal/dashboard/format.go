package dashboard

import (
	"fmt"
	"math"
	"strings"
)

// FormatMoney formats a dollar value as $X,XXX.XX with a sign for negatives.
func FormatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := int64(v)
	cents := int64(math.Round((v - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	return fmt.Sprintf("%s$%s.%02d", sign, groupThousands(whole), cents)
}

// FormatQuantity formats a position quantity, trimming trailing zeros down to
// four decimals.
func FormatQuantity(q float64) string {
	s := fmt.Sprintf("%.4f", q)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// FormatPercent formats a percentage with an explicit sign.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%+.2f%%", p)
}

// FormatPrice formats a price, or "-" when there is none.
func FormatPrice(p *float64) string {
	if p == nil || *p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

// FormatLeverage formats a leverage multiple.
func FormatLeverage(l float64) string {
	return fmt.Sprintf("%gx", l)
}

// groupThousands inserts comma separators into a non-negative integer.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
