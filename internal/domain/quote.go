package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidQuote marks market records rejected at the API boundary.
var ErrInvalidQuote = errors.New("invalid quote")

// Quote is a validated snapshot of market data for one coin at poll time.
// Instances are only built through NewQuote, so downstream code never sees
// NaN, infinities, or negative prices.
type Quote struct {
	ID           string
	Symbol       string
	Name         string
	CurrentPrice decimal.Decimal
	ChangePct24h decimal.Decimal
	MarketCap    decimal.Decimal
	TotalVolume  decimal.Decimal
	Image        string
}

// NewQuote validates raw market-API fields and builds a Quote.
// A non-finite 24h change collapses to zero (the API reports null for fresh
// listings); a non-finite or negative price, market cap, or volume rejects
// the whole record.
func NewQuote(id, symbol, name, image string, price, changePct, marketCap, volume float64) (Quote, error) {
	if id == "" {
		return Quote{}, fmt.Errorf("%w: missing coin id", ErrInvalidQuote)
	}

	priceDec, err := finiteNonNegative("current_price", price)
	if err != nil {
		return Quote{}, fmt.Errorf("%w (%s): %v", ErrInvalidQuote, id, err)
	}
	capDec, err := finiteNonNegative("market_cap", marketCap)
	if err != nil {
		return Quote{}, fmt.Errorf("%w (%s): %v", ErrInvalidQuote, id, err)
	}
	volDec, err := finiteNonNegative("total_volume", volume)
	if err != nil {
		return Quote{}, fmt.Errorf("%w (%s): %v", ErrInvalidQuote, id, err)
	}

	change := decimal.Zero
	if !math.IsNaN(changePct) && !math.IsInf(changePct, 0) {
		change = decimal.NewFromFloat(changePct)
	}

	return Quote{
		ID:           id,
		Symbol:       symbol,
		Name:         name,
		CurrentPrice: priceDec,
		ChangePct24h: change,
		MarketCap:    capDec,
		TotalVolume:  volDec,
		Image:        image,
	}, nil
}

func finiteNonNegative(field string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, fmt.Errorf("%s is not finite", field)
	}
	if v < 0 {
		return decimal.Decimal{}, fmt.Errorf("%s is negative", field)
	}
	return decimal.NewFromFloat(v), nil
}

// QuoteBook indexes one consistent quote snapshot by coin id.
type QuoteBook map[string]Quote

// NewQuoteBook builds the per-refresh index. Later duplicates win, matching
// the wholesale-replacement semantics of a poll.
func NewQuoteBook(quotes []Quote) QuoteBook {
	book := make(QuoteBook, len(quotes))
	for _, q := range quotes {
		book[q.ID] = q
	}
	return book
}

// Lookup returns the quote for a coin id, if present.
func (b QuoteBook) Lookup(coinID string) (Quote, bool) {
	q, ok := b[coinID]
	return q, ok
}
