package domain

import (
	"math"
	"testing"
)

func TestNewQuoteRejectsBadInput(t *testing.T) {
	cases := []struct {
		name      string
		id        string
		price     float64
		marketCap float64
	}{
		{"empty id", "", 100, 0},
		{"nan price", "bitcoin", math.NaN(), 0},
		{"infinite price", "bitcoin", math.Inf(1), 0},
		{"negative price", "bitcoin", -1, 0},
		{"negative market cap", "bitcoin", 100, -5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewQuote(tc.id, "btc", "Bitcoin", "", tc.price, 0, tc.marketCap, 0); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestNewQuoteNormalisesChange(t *testing.T) {
	// A NaN 24h change is reported as zero rather than rejected; upstream
	// APIs return null for freshly listed coins.
	q, err := NewQuote("bitcoin", "btc", "Bitcoin", "", 100, math.NaN(), 0, 0)
	if err != nil {
		t.Fatalf("NewQuote: %v", err)
	}
	if !q.ChangePct24h.IsZero() {
		t.Fatalf("change = %s, want 0", q.ChangePct24h)
	}
}

func TestQuoteBookLaterDuplicatesWin(t *testing.T) {
	first, _ := NewQuote("bitcoin", "btc", "Bitcoin", "", 100, 0, 0, 0)
	second, _ := NewQuote("bitcoin", "btc", "Bitcoin", "", 200, 0, 0, 0)

	book := NewQuoteBook([]Quote{first, second})
	got, ok := book.Lookup("bitcoin")
	if !ok {
		t.Fatal("lookup failed")
	}
	if !got.CurrentPrice.Equal(second.CurrentPrice) {
		t.Fatalf("price = %s, want 200", got.CurrentPrice)
	}
}
