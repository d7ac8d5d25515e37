package format

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCurrencyInvalidAmounts(t *testing.T) {
	if got := Currency(math.NaN(), "usd", false); got != "$0.00" {
		t.Fatalf("NaN usd = %q, want $0.00", got)
	}
	if got := Currency(math.NaN(), "eur", false); got != "€0.00" {
		t.Fatalf("NaN eur = %q, want €0.00", got)
	}
	if got := Currency(math.Inf(1), "inr", false); got != "₹0.00" {
		t.Fatalf("Inf inr = %q, want ₹0.00", got)
	}
}

func TestCurrencyFullPrecision(t *testing.T) {
	cases := []struct {
		amount float64
		code   string
		want   string
	}{
		{1234.5, "usd", "$1,234.50"},
		{0, "usd", "$0.00"},
		{-42.1, "eur", "€-42.10"},
		{999999.99, "usd", "$999,999.99"},
		{0.5, "btc", "₿0.50"},
		{12.34, "eth", "Ξ12.34"},
	}
	for _, c := range cases {
		if got := Currency(c.amount, c.code, false); got != c.want {
			t.Errorf("Currency(%v, %q) = %q, want %q", c.amount, c.code, got, c.want)
		}
	}
}

func TestCurrencyCompact(t *testing.T) {
	if got := Currency(1_200_000, "usd", true); got != "$1.2M" {
		t.Fatalf("compact 1.2M = %q", got)
	}
	if got := Currency(2_500_000_000, "usd", true); got != "$2.5B" {
		t.Fatalf("compact 2.5B = %q", got)
	}
	if got := Currency(3_000_000_000_000, "usd", true); got != "$3T" {
		t.Fatalf("compact 3T = %q", got)
	}
	// Below the threshold compact mode keeps full precision.
	if got := Currency(999_999, "usd", true); got != "$999,999.00" {
		t.Fatalf("sub-threshold compact = %q", got)
	}
}

func TestCurrencyUnknownCodeFallsBack(t *testing.T) {
	if got := Currency(10, "wat", false); got != "$10.00" {
		t.Fatalf("unknown code = %q, want $10.00", got)
	}
	// ISO codes outside the manual table resolve through the currency registry.
	if got := Currency(10, "gbp", false); got != "£10.00" {
		t.Fatalf("gbp = %q, want £10.00", got)
	}
}

func TestCurrencyDecimal(t *testing.T) {
	if got := CurrencyDecimal(decimal.NewFromFloat(60000), "usd", false); got != "$60,000.00" {
		t.Fatalf("decimal currency = %q", got)
	}
	if got := CurrencyDecimal(decimal.NewFromInt(1_250_000), "usd", true); got != "$1.25M" {
		t.Fatalf("decimal compact = %q", got)
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(math.NaN()); got != "0.00%" {
		t.Fatalf("NaN = %q, want 0.00%%", got)
	}
	if got := Percentage(-3.456); got != "-3.46%" {
		t.Fatalf("-3.456 = %q, want -3.46%%", got)
	}
	if got := Percentage(0); got != "0.00%" {
		t.Fatalf("0 = %q, want 0.00%%", got)
	}
	if got := PercentageDecimal(decimal.NewFromFloat(5)); got != "5.00%" {
		t.Fatalf("decimal 5 = %q, want 5.00%%", got)
	}
}
