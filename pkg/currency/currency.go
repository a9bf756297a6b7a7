// Package currency renders monetary amounts for display.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultSymbol is used when no symbol is configured
const DefaultSymbol = "$"

// Format renders d with thousands separators and two decimals,
// e.g. 1234567.891 -> "$1,234,567.89" and -5 -> "-$5.00".
// Rounding is half away from zero.
func Format(d decimal.Decimal, symbol string) string {
	return format(d.Round(2).StringFixed(2), symbol)
}

// FormatWhole is Format without the fraction when d is a whole amount,
// used for axis ticks.
func FormatWhole(d decimal.Decimal, symbol string) string {
	if d.Equal(d.Truncate(0)) {
		return format(d.StringFixed(0), symbol)
	}
	return Format(d, symbol)
}

func format(fixed, symbol string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, frac, hasFrac := strings.Cut(fixed, ".")
	if intPart == "0" && strings.Trim(frac, "0") == "" {
		sign = ""
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(symbol)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
