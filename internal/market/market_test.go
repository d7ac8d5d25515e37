package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:   baseURL,
		PerPage:   50,
		Timeout:   time.Second,
		UserAgent: "test",
	}, noopLogger())
}

func TestFetchQuotesSuccess(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":                          "bitcoin",
				"symbol":                      "btc",
				"name":                        "Bitcoin",
				"current_price":               30000.0,
				"price_change_percentage_24h": 5.0,
				"market_cap":                  1.0e12,
				"total_volume":                2.0e10,
			},
			{
				"id":                          "ethereum",
				"symbol":                      "eth",
				"name":                        "Ethereum",
				"current_price":               2000.0,
				"price_change_percentage_24h": nil, // fresh listing
				"market_cap":                  3.0e11,
				"total_volume":                1.0e10,
			},
		})
	}))
	defer srv.Close()

	quotes, err := newTestClient(srv.URL).FetchQuotes(context.Background(), "usd")
	if err != nil {
		t.Fatalf("FetchQuotes: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
	if !quotes[0].CurrentPrice.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("bitcoin price = %s", quotes[0].CurrentPrice)
	}
	if !quotes[1].ChangePct24h.IsZero() {
		t.Fatalf("null 24h change should normalise to zero, got %s", quotes[1].ChangePct24h)
	}

	if got := gotQuery["vs_currency"]; len(got) != 1 || got[0] != "usd" {
		t.Fatalf("vs_currency = %v", got)
	}
	if got := gotQuery["price_change_percentage"]; len(got) != 1 || got[0] != "24h" {
		t.Fatalf("price_change_percentage = %v", got)
	}
}

func TestFetchQuotesSkipsInvalidRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "", "current_price": 1.0},                     // missing id
			{"id": "badprice", "current_price": -5.0},            // negative price
			{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "current_price": 100.0},
		})
	}))
	defer srv.Close()

	quotes, err := newTestClient(srv.URL).FetchQuotes(context.Background(), "usd")
	if err != nil {
		t.Fatalf("FetchQuotes: %v", err)
	}
	if len(quotes) != 1 || quotes[0].ID != "bitcoin" {
		t.Fatalf("invalid records should be skipped, got %v", quotes)
	}
}

func TestFetchQuotesEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	quotes, err := newTestClient(srv.URL).FetchQuotes(context.Background(), "eur")
	if err != nil {
		t.Fatalf("empty page is valid: %v", err)
	}
	if len(quotes) != 0 {
		t.Fatalf("got %d quotes, want 0", len(quotes))
	}
}

func TestFetchQuotesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"error_code": 429, "error_message": "rate limited"},
		})
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).FetchQuotes(context.Background(), "usd"); err == nil {
		t.Fatal("HTTP 429 must return an error")
	}
}

func TestFetchQuotesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).FetchQuotes(context.Background(), "usd"); err == nil {
		t.Fatal("non-array body must return an error")
	}
}
