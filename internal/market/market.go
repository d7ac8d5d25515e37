package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"coindeck/internal/domain"
)

const marketsPath = "/coins/markets"

// QuoteFetcher retrieves one page of live market quotes for a display
// currency. Any conforming sequence, including an empty one, is accepted.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, currency string) ([]domain.Quote, error)
}

// Options parameterise the market-data client.
type Options struct {
	BaseURL   string
	Order     string
	PerPage   int
	Timeout   time.Duration
	UserAgent string
}

// Client fetches quotes from a CoinGecko-compatible markets API.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a market-data client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	if opts.Order == "" {
		opts.Order = "market_cap_desc"
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 50
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "market_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// wireQuote mirrors the markets API record. Nullable numbers are pointers so
// a JSON null survives decoding and can be normalised deliberately.
type wireQuote struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	MarketCap                *float64 `json:"market_cap"`
	TotalVolume              *float64 `json:"total_volume"`
}

// FetchQuotes retrieves and validates the current quote page. Records that
// fail validation are skipped rather than failing the whole refresh.
func (c *Client) FetchQuotes(ctx context.Context, currency string) ([]domain.Quote, error) {
	if currency == "" {
		currency = "usd"
	}

	query := url.Values{}
	query.Set("vs_currency", strings.ToLower(currency))
	query.Set("order", c.opts.Order)
	query.Set("per_page", strconv.Itoa(c.opts.PerPage))
	query.Set("page", "1")
	query.Set("sparkline", "false")
	query.Set("price_change_percentage", "24h")

	endpoint := c.baseURL + marketsPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "coindeck/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	var records []wireQuote
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("decode markets response: %w", err)
	}

	quotes := make([]domain.Quote, 0, len(records))
	for _, rec := range records {
		quote, err := domain.NewQuote(
			rec.ID,
			rec.Symbol,
			rec.Name,
			rec.Image,
			deref(rec.CurrentPrice),
			// null 24h change stays zero, matching the display layer's "|| 0"
			deref(rec.PriceChangePercentage24h),
			deref(rec.MarketCap),
			deref(rec.TotalVolume),
		)
		if err != nil {
			c.logger.Debug().Err(err).Str("coin", rec.ID).Msg("skipping invalid market record")
			continue
		}
		quotes = append(quotes, quote)
	}

	return quotes, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

type errorResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Error string `json:"error"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Status.ErrorMessage != "" {
			return fmt.Errorf("markets api error (%d): %s", status, apiErr.Status.ErrorMessage)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("markets api error (%d): %s", status, apiErr.Error)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("markets api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("markets api error (%d)", status)
}

var _ QuoteFetcher = (*Client)(nil)
