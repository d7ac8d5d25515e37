package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coindeck/internal/config"
	"coindeck/internal/domain"
	"coindeck/internal/storage"
)

type memUserStore struct {
	users  map[string]domain.User
	nextID int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]domain.User)}
}

func (m *memUserStore) InsertUser(ctx context.Context, user domain.User) (domain.User, error) {
	m.nextID++
	user.ID = "u" + strconv.Itoa(m.nextID)
	m.users[user.ID] = user
	return user, nil
}

func (m *memUserStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, storage.ErrNotFound
}

func (m *memUserStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, storage.ErrNotFound
	}
	return u, nil
}

type memHoldingStore struct {
	holdings map[string]domain.Holding
	nextID   int
}

func newMemHoldingStore() *memHoldingStore {
	return &memHoldingStore{holdings: make(map[string]domain.Holding)}
}

func (m *memHoldingStore) InsertHolding(ctx context.Context, h domain.Holding) (domain.Holding, error) {
	m.nextID++
	h.ID = "h" + strconv.Itoa(m.nextID)
	m.holdings[h.ID] = h
	return h, nil
}

func (m *memHoldingStore) ListHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	out := make([]domain.Holding, 0)
	for _, h := range m.holdings {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memHoldingStore) ListAllHoldings(ctx context.Context) ([]domain.Holding, error) {
	out := make([]domain.Holding, 0, len(m.holdings))
	for _, h := range m.holdings {
		out = append(out, h)
	}
	return out, nil
}

func (m *memHoldingStore) GetHolding(ctx context.Context, id string) (domain.Holding, error) {
	h, ok := m.holdings[id]
	if !ok {
		return domain.Holding{}, storage.ErrNotFound
	}
	return h, nil
}

func (m *memHoldingStore) UpdateHoldingAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	h, ok := m.holdings[id]
	if !ok {
		return storage.ErrNotFound
	}
	h.Amount = amount
	m.holdings[id] = h
	return nil
}

func (m *memHoldingStore) DeleteHolding(ctx context.Context, id string) (bool, error) {
	if _, ok := m.holdings[id]; !ok {
		return false, nil
	}
	delete(m.holdings, id)
	return true, nil
}

type memWatchlistStore struct {
	entries map[string]domain.WatchlistEntry
}

func newMemWatchlistStore() *memWatchlistStore {
	return &memWatchlistStore{entries: make(map[string]domain.WatchlistEntry)}
}

func watchKey(userID, coinID string) string { return userID + "/" + coinID }

func (m *memWatchlistStore) ListWatchlist(ctx context.Context, userID string) ([]domain.WatchlistEntry, error) {
	out := make([]domain.WatchlistEntry, 0)
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memWatchlistStore) InsertWatchlistEntry(ctx context.Context, e domain.WatchlistEntry) error {
	key := watchKey(e.UserID, e.CoinID)
	if _, ok := m.entries[key]; ok {
		return nil
	}
	e.CreatedAt = time.Now().UTC()
	m.entries[key] = e
	return nil
}

func (m *memWatchlistStore) DeleteWatchlistEntry(ctx context.Context, userID, coinID string) (bool, error) {
	key := watchKey(userID, coinID)
	if _, ok := m.entries[key]; !ok {
		return false, nil
	}
	delete(m.entries, key)
	return true, nil
}

type memAlertStore struct {
	rules  map[string]domain.AlertRule
	nextID int
}

func newMemAlertStore() *memAlertStore {
	return &memAlertStore{rules: make(map[string]domain.AlertRule)}
}

func (m *memAlertStore) InsertAlert(ctx context.Context, rule domain.AlertRule) (domain.AlertRule, error) {
	m.nextID++
	rule.ID = "a" + strconv.Itoa(m.nextID)
	m.rules[rule.ID] = rule
	return rule, nil
}

func (m *memAlertStore) ListAlerts(ctx context.Context, userID string) ([]domain.AlertRule, error) {
	out := make([]domain.AlertRule, 0)
	for _, r := range m.rules {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAlertStore) ListActiveAlerts(ctx context.Context) ([]domain.AlertRule, error) {
	out := make([]domain.AlertRule, 0)
	for _, r := range m.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAlertStore) GetAlert(ctx context.Context, id string) (domain.AlertRule, error) {
	r, ok := m.rules[id]
	if !ok {
		return domain.AlertRule{}, storage.ErrNotFound
	}
	return r, nil
}

func (m *memAlertStore) UpdateAlert(ctx context.Context, id string, target decimal.Decimal, condition domain.Condition) error {
	r, ok := m.rules[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.TargetPrice = target
	r.Condition = condition
	m.rules[id] = r
	return nil
}

func (m *memAlertStore) SetAlertActive(ctx context.Context, id string, active bool) error {
	r, ok := m.rules[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.IsActive = active
	m.rules[id] = r
	return nil
}

func (m *memAlertStore) DeleteAlert(ctx context.Context, id string) (bool, error) {
	if _, ok := m.rules[id]; !ok {
		return false, nil
	}
	delete(m.rules, id)
	return true, nil
}

type staticQuotes struct {
	book domain.QuoteBook
}

func (s staticQuotes) QuotesFor(ctx context.Context, currency string) (domain.QuoteBook, time.Time, error) {
	return s.book, time.Now().UTC(), nil
}

func (s staticQuotes) Currency() string { return "usd" }

type testEnv struct {
	server   *Server
	users    *memUserStore
	holdings *memHoldingStore
	watch    *memWatchlistStore
	alerts   *memAlertStore
}

func newTestEnv(t *testing.T, book domain.QuoteBook) *testEnv {
	t.Helper()

	cfg := config.ServerConfig{
		Addr:         ":0",
		AllowOrigins: []string{"http://localhost:3000"},
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
	}

	env := &testEnv{
		users:    newMemUserStore(),
		holdings: newMemHoldingStore(),
		watch:    newMemWatchlistStore(),
		alerts:   newMemAlertStore(),
	}
	env.server = New(cfg, env.users, env.holdings, env.watch, env.alerts, staticQuotes{book: book}, nil, zerolog.Nop())
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signupToken(t *testing.T, email string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/signup", "", map[string]string{
		"email":    email,
		"password": "hunter22",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp.Token
}

func testBook(t *testing.T, price, changePct float64) domain.QuoteBook {
	t.Helper()
	q, err := domain.NewQuote("bitcoin", "btc", "Bitcoin", "", price, changePct, 1e9, 1e8)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	return domain.NewQuoteBook([]domain.Quote{q})
}

func TestSignupLoginAndAuth(t *testing.T) {
	env := newTestEnv(t, domain.QuoteBook{})

	token := env.signupToken(t, "ada@example.com")
	if token == "" {
		t.Fatal("signup returned no token")
	}

	// Duplicate email is rejected.
	rec := env.do(t, http.MethodPost, "/signup", "", map[string]string{
		"email":    "ada@example.com",
		"password": "hunter22",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup returned %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login returned %d", rec.Code)
	}

	if rec := env.do(t, http.MethodGet, "/portfolio", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated portfolio returned %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/portfolio", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("authenticated portfolio returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPortfolioValuation(t *testing.T) {
	env := newTestEnv(t, testBook(t, 30000, 5))
	token := env.signupToken(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/portfolio", token, map[string]interface{}{
		"coin_id":        "bitcoin",
		"name":           "Bitcoin",
		"symbol":         "btc",
		"amount":         2,
		"purchase_price": 20000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create holding returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/portfolio", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("portfolio returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		TotalValue     float64 `json:"total_value"`
		TotalChange24h float64 `json:"total_change_24h"`
		ChangePct24h   float64 `json:"change_pct_24h"`
		Positive       bool    `json:"positive"`
		Holdings       []struct {
			HasQuote bool    `json:"has_quote"`
			Value    float64 `json:"value"`
		} `json:"holdings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode portfolio: %v", err)
	}

	if resp.TotalValue != 60000 {
		t.Fatalf("total value = %v, want 60000", resp.TotalValue)
	}
	if resp.ChangePct24h != 5 {
		t.Fatalf("change pct = %v, want 5", resp.ChangePct24h)
	}
	if !resp.Positive {
		t.Fatal("gain must be positive")
	}
	if len(resp.Holdings) != 1 || !resp.Holdings[0].HasQuote {
		t.Fatalf("unexpected holdings payload: %+v", resp.Holdings)
	}
}

func TestCreateHoldingValidation(t *testing.T) {
	env := newTestEnv(t, domain.QuoteBook{})
	token := env.signupToken(t, "ada@example.com")

	for _, body := range []map[string]interface{}{
		{"coin_id": "bitcoin", "amount": 0, "purchase_price": 100},
		{"coin_id": "bitcoin", "amount": -1, "purchase_price": 100},
		{"coin_id": "bitcoin", "amount": 1, "purchase_price": 0},
	} {
		rec := env.do(t, http.MethodPost, "/portfolio", token, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("create %v returned %d, want 400", body, rec.Code)
		}
	}
}

func TestUpdateHoldingZeroAmountDeletes(t *testing.T) {
	env := newTestEnv(t, domain.QuoteBook{})
	token := env.signupToken(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/portfolio", token, map[string]interface{}{
		"coin_id":        "bitcoin",
		"amount":         1.5,
		"purchase_price": 20000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create holding returned %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	rec = env.do(t, http.MethodPut, "/portfolio/"+created.ID, token, map[string]interface{}{"amount": 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("zero-amount update returned %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := env.holdings.GetHolding(context.Background(), created.ID); err == nil {
		t.Fatal("holding must be gone after a zero-amount update")
	}
}

func TestHoldingOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t, domain.QuoteBook{})
	ownerToken := env.signupToken(t, "owner@example.com")
	otherToken := env.signupToken(t, "other@example.com")

	rec := env.do(t, http.MethodPost, "/portfolio", ownerToken, map[string]interface{}{
		"coin_id":        "bitcoin",
		"amount":         1,
		"purchase_price": 100,
	})
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	if rec := env.do(t, http.MethodDelete, "/portfolio/"+created.ID, otherToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete returned %d, want 404", rec.Code)
	}
	if _, err := env.holdings.GetHolding(context.Background(), created.ID); err != nil {
		t.Fatal("holding must survive a foreign delete attempt")
	}
}

func TestWatchlistToggle(t *testing.T) {
	env := newTestEnv(t, domain.QuoteBook{})
	token := env.signupToken(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/watchlist/bitcoin/toggle", token, map[string]string{
		"name":   "Bitcoin",
		"symbol": "btc",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Watched bool `json:"watched"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode toggle response: %v", err)
	}
	if !resp.Watched {
		t.Fatal("first toggle must add the coin")
	}

	// Second toggle removes it again.
	rec = env.do(t, http.MethodPost, "/watchlist/bitcoin/toggle", token, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode second toggle response: %v", err)
	}
	if resp.Watched {
		t.Fatal("second toggle must remove the coin")
	}

	entries, err := env.watch.ListWatchlist(context.Background(), "u1")
	if err != nil || len(entries) != 0 {
		t.Fatalf("watchlist after double toggle: %v entries, err %v", len(entries), err)
	}
}

func TestAlertLifecycle(t *testing.T) {
	env := newTestEnv(t, testBook(t, 30000, 5))
	token := env.signupToken(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/alerts", token, map[string]interface{}{
		"coin_id":      "bitcoin",
		"name":         "Bitcoin",
		"symbol":       "btc",
		"target_price": 25000,
		"condition":    "above",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create alert returned %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	rec = env.do(t, http.MethodGet, "/alerts", token, nil)
	var listResp struct {
		Alerts []struct {
			Status   string `json:"status"`
			IsActive bool   `json:"is_active"`
		} `json:"alerts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if len(listResp.Alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(listResp.Alerts))
	}
	if listResp.Alerts[0].Status != "triggered" {
		t.Fatalf("status = %q, want triggered", listResp.Alerts[0].Status)
	}
	if !listResp.Alerts[0].IsActive {
		t.Fatal("new rules must start active")
	}

	// Toggling delivery off leaves the derived status visible.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/alerts/%s/toggle", created.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle returned %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/alerts", token, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode alerts after toggle: %v", err)
	}
	if listResp.Alerts[0].IsActive {
		t.Fatal("toggle must deactivate the rule")
	}
	if listResp.Alerts[0].Status != "triggered" {
		t.Fatalf("inactive rule status = %q, want triggered", listResp.Alerts[0].Status)
	}

	if rec := env.do(t, http.MethodDelete, "/alerts/"+created.ID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete alert returned %d", rec.Code)
	}
}

func TestCreateAlertRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, domain.QuoteBook{})
	token := env.signupToken(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/alerts", token, map[string]interface{}{
		"coin_id":      "bitcoin",
		"target_price": 25000,
		"condition":    "sideways",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad condition returned %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/alerts", token, map[string]interface{}{
		"coin_id":      "bitcoin",
		"target_price": 0,
		"condition":    "above",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero target returned %d, want 400", rec.Code)
	}
}

func TestMarketsPublicEndpoint(t *testing.T) {
	env := newTestEnv(t, testBook(t, 30000, -2.5))

	rec := env.do(t, http.MethodGet, "/markets", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("markets returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Currency string `json:"currency"`
		Markets  []struct {
			ID       string `json:"id"`
			Positive bool   `json:"positive"`
		} `json:"markets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode markets: %v", err)
	}
	if resp.Currency != "usd" {
		t.Fatalf("currency = %q, want usd", resp.Currency)
	}
	if len(resp.Markets) != 1 || resp.Markets[0].ID != "bitcoin" {
		t.Fatalf("unexpected markets payload: %+v", resp.Markets)
	}
	if resp.Markets[0].Positive {
		t.Fatal("a -2.5% move must not report positive")
	}
}
