// Package format renders amounts and percentages for display. It never
// fails: invalid input falls back to the zero-value string and unknown
// currency codes fall back to a manual symbol table.
package format

import (
	"math"
	"strconv"
	"strings"

	money "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Symbols for codes the UI exposes plus the crypto pseudo-currencies the
// ISO registry doesn't know. Anything else renders with "$".
var symbols = map[string]string{
	"usd": "$",
	"eur": "€",
	"inr": "₹",
	"btc": "₿",
	"eth": "Ξ",
}

const compactThreshold = 1_000_000

// Currency formats an amount in the given lowercase currency code.
// NaN or infinite amounts render as the currency's zero value. With compact
// set, amounts of one million and above use abbreviated notation ("1.2M").
func Currency(amount float64, code string, compact bool) string {
	symbol := symbolFor(code)
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return symbol + "0.00"
	}

	if compact && math.Abs(amount) >= compactThreshold {
		return symbol + compactNumber(amount)
	}

	return symbol + groupThousands(strconv.FormatFloat(amount, 'f', 2, 64))
}

// CurrencyDecimal is Currency for exact values coming out of the
// valuation core.
func CurrencyDecimal(amount decimal.Decimal, code string, compact bool) string {
	symbol := symbolFor(code)
	if compact && amount.Abs().GreaterThanOrEqual(decimal.NewFromInt(compactThreshold)) {
		return symbol + compactNumber(amount.InexactFloat64())
	}
	return symbol + groupThousands(amount.StringFixed(2))
}

// Percentage formats a percent value with two fraction digits. The sign is
// kept as-is; callers wanting a direction indicator take the absolute value
// themselves.
func Percentage(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0.00%"
	}
	return strconv.FormatFloat(value, 'f', 2, 64) + "%"
}

// PercentageDecimal is Percentage for exact values.
func PercentageDecimal(value decimal.Decimal) string {
	return value.StringFixed(2) + "%"
}

// symbolFor resolves a display symbol, preferring the ISO currency registry
// and degrading to the manual table for crypto codes and unknowns.
func symbolFor(code string) string {
	lower := strings.ToLower(code)
	if s, ok := symbols[lower]; ok {
		return s
	}
	if cur := money.GetCurrency(strings.ToUpper(code)); cur != nil && cur.Grapheme != "" {
		return cur.Grapheme
	}
	return "$"
}

// compactNumber abbreviates to M/B/T with up to two fraction digits,
// trailing zeros trimmed ("1.2M", "1.25B").
func compactNumber(amount float64) string {
	abs := math.Abs(amount)
	unit := ""
	switch {
	case abs >= 1e12:
		amount, unit = amount/1e12, "T"
	case abs >= 1e9:
		amount, unit = amount/1e9, "B"
	default:
		amount, unit = amount/1e6, "M"
	}

	s := strconv.FormatFloat(amount, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + unit
}

// groupThousands inserts en-US style thousands separators into a plain
// fixed-point number string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}
