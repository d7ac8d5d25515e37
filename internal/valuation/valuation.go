// Package valuation computes portfolio value and 24h change from holdings
// joined with live quotes. All functions are pure: identical inputs yield
// identical snapshots, and calling on every tick is safe.
package valuation

import (
	"github.com/shopspring/decimal"

	"coindeck/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// HoldingValuation is one holding priced against the current quote set.
// A holding whose coin has no quote keeps HasQuote false and contributes
// zero to both value and change; it is excluded from totals, not an error.
type HoldingValuation struct {
	Holding      domain.Holding
	Quote        domain.Quote
	HasQuote     bool
	Value        decimal.Decimal
	Change24h    decimal.Decimal
	ChangePct24h decimal.Decimal
}

// Snapshot is the whole-portfolio aggregate for one consistent
// (holdings, quotes) pair. It is derived on demand and never persisted.
type Snapshot struct {
	Currency       string
	Holdings       []HoldingValuation
	TotalValue     decimal.Decimal
	TotalChange24h decimal.Decimal
	ChangePct24h   decimal.Decimal
	Positive       bool
}

// ValueHolding prices a single holding. The 24h change uses the quote's
// current percentage, not the holding's cost basis: it is today's portfolio
// delta, not realized gain.
func ValueHolding(h domain.Holding, book domain.QuoteBook) HoldingValuation {
	quote, ok := book.Lookup(h.CoinID)
	if !ok {
		return HoldingValuation{Holding: h, Value: decimal.Zero, Change24h: decimal.Zero, ChangePct24h: decimal.Zero}
	}

	value := quote.CurrentPrice.Mul(h.Amount)
	change := value.Mul(quote.ChangePct24h).Div(hundred)

	return HoldingValuation{
		Holding:      h,
		Quote:        quote,
		HasQuote:     true,
		Value:        value,
		Change24h:    change,
		ChangePct24h: quote.ChangePct24h,
	}
}

// Compute aggregates a holding list against one quote snapshot.
// The percent change is 0 when the total value is zero, never a division
// error, and a portfolio counts as positive when its percent change is >= 0.
func Compute(holdings []domain.Holding, book domain.QuoteBook, currency string) Snapshot {
	snap := Snapshot{
		Currency:       currency,
		Holdings:       make([]HoldingValuation, 0, len(holdings)),
		TotalValue:     decimal.Zero,
		TotalChange24h: decimal.Zero,
		ChangePct24h:   decimal.Zero,
	}

	for _, h := range holdings {
		hv := ValueHolding(h, book)
		snap.Holdings = append(snap.Holdings, hv)
		snap.TotalValue = snap.TotalValue.Add(hv.Value)
		snap.TotalChange24h = snap.TotalChange24h.Add(hv.Change24h)
	}

	if snap.TotalValue.IsPositive() {
		snap.ChangePct24h = snap.TotalChange24h.Div(snap.TotalValue).Mul(hundred)
	}
	snap.Positive = IsPositive(snap.ChangePct24h)
	return snap
}

// IsPositive reports the display direction of a percent change.
// Zero counts as positive, not negative.
func IsPositive(pct decimal.Decimal) bool {
	return pct.Sign() >= 0
}
