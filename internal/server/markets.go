package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"coindeck/internal/format"
	"coindeck/internal/wallet"
)

type marketRowResponse struct {
	ID               string  `json:"id"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Image            string  `json:"image,omitempty"`
	CurrentPrice     float64 `json:"current_price"`
	ChangePct24h     float64 `json:"change_pct_24h"`
	MarketCap        float64 `json:"market_cap"`
	TotalVolume      float64 `json:"total_volume"`
	PriceDisplay     string  `json:"price_display"`
	ChangeDisplay    string  `json:"change_display"`
	MarketCapDisplay string  `json:"market_cap_display"`
	Positive         bool    `json:"positive"`
}

// getMarkets serves the market overview table. Public: the browse view needs
// no account.
func (s *Server) getMarkets(c *gin.Context) {
	currency := c.DefaultQuery("currency", s.quotes.Currency())

	book, refreshedAt, err := s.quotes.QuotesFor(c.Request.Context(), currency)
	if err != nil {
		s.logger.Error().Err(err).Str("currency", currency).Msg("market fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "market data unavailable"})
		return
	}

	rows := make([]marketRowResponse, 0, len(book))
	for _, q := range book {
		rows = append(rows, marketRowResponse{
			ID:               q.ID,
			Symbol:           q.Symbol,
			Name:             q.Name,
			Image:            q.Image,
			CurrentPrice:     q.CurrentPrice.InexactFloat64(),
			ChangePct24h:     q.ChangePct24h.InexactFloat64(),
			MarketCap:        q.MarketCap.InexactFloat64(),
			TotalVolume:      q.TotalVolume.InexactFloat64(),
			PriceDisplay:     format.CurrencyDecimal(q.CurrentPrice, currency, false),
			ChangeDisplay:    format.PercentageDecimal(q.ChangePct24h),
			MarketCapDisplay: format.CurrencyDecimal(q.MarketCap, currency, true),
			Positive:         q.ChangePct24h.Sign() >= 0,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].MarketCap > rows[j].MarketCap })

	c.JSON(http.StatusOK, gin.H{
		"currency":     currency,
		"refreshed_at": refreshedAt,
		"markets":      rows,
	})
}

// getWalletBalance resolves an on-chain ETH balance for the wallet panel.
func (s *Server) getWalletBalance(c *gin.Context) {
	if s.wallet == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "wallet lookups not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	balance, err := s.wallet.FetchBalance(ctx, c.Param("address"))
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
			return
		}
		s.logger.Error().Err(err).Msg("wallet balance lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "balance unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":      balance.Address,
		"eth":          balance.ETH.String(),
		"block_number": balance.BlockNumber,
	})
}
