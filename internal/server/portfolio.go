package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"coindeck/internal/domain"
	"coindeck/internal/format"
	"coindeck/internal/valuation"
)

type holdingResponse struct {
	ID            string    `json:"id"`
	CoinID        string    `json:"coin_id"`
	Name          string    `json:"name"`
	Symbol        string    `json:"symbol"`
	ImageURL      string    `json:"image_url,omitempty"`
	Amount        float64   `json:"amount"`
	PurchasePrice float64   `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	HasQuote      bool      `json:"has_quote"`
	CurrentPrice  float64   `json:"current_price"`
	Value         float64   `json:"value"`
	Change24h     float64   `json:"change_24h"`
	ChangePct24h  float64   `json:"change_pct_24h"`
	ValueDisplay  string    `json:"value_display"`
	ChangeDisplay string    `json:"change_pct_display"`
}

type portfolioResponse struct {
	Currency           string            `json:"currency"`
	RefreshedAt        time.Time         `json:"refreshed_at"`
	Holdings           []holdingResponse `json:"holdings"`
	TotalValue         float64           `json:"total_value"`
	TotalChange24h     float64           `json:"total_change_24h"`
	ChangePct24h       float64           `json:"change_pct_24h"`
	Positive           bool              `json:"positive"`
	TotalValueDisplay  string            `json:"total_value_display"`
	TotalChangeDisplay string            `json:"total_change_display"`
	ChangePctDisplay   string            `json:"change_pct_display"`
}

// getPortfolio joins the user's holdings with the latest quote snapshot and
// returns the derived valuation. Nothing here is cached; each request
// recomputes from one consistent (holdings, quotes) pair.
func (s *Server) getPortfolio(c *gin.Context) {
	userID := s.currentUserID(c)

	holdings, err := s.holdings.ListHoldings(c.Request.Context(), userID)
	if err != nil {
		s.storageError(c, err)
		return
	}

	currency := c.DefaultQuery("currency", s.quotes.Currency())
	book, refreshedAt, err := s.quotes.QuotesFor(c.Request.Context(), currency)
	if err != nil {
		// Treat an unreachable market API as "no quotes available"; the
		// missing-quote policy then degrades every aggregate to zero.
		s.logger.Warn().Err(err).Msg("quotes unavailable, valuing against empty book")
		book = domain.QuoteBook{}
	}

	snap := valuation.Compute(holdings, book, currency)

	resp := portfolioResponse{
		Currency:           snap.Currency,
		RefreshedAt:        refreshedAt,
		Holdings:           make([]holdingResponse, 0, len(snap.Holdings)),
		TotalValue:         snap.TotalValue.InexactFloat64(),
		TotalChange24h:     snap.TotalChange24h.InexactFloat64(),
		ChangePct24h:       snap.ChangePct24h.InexactFloat64(),
		Positive:           snap.Positive,
		TotalValueDisplay:  format.CurrencyDecimal(snap.TotalValue, currency, true),
		TotalChangeDisplay: format.CurrencyDecimal(snap.TotalChange24h, currency, true),
		ChangePctDisplay:   format.PercentageDecimal(snap.ChangePct24h),
	}

	for _, hv := range snap.Holdings {
		item := holdingResponse{
			ID:            hv.Holding.ID,
			CoinID:        hv.Holding.CoinID,
			Name:          hv.Holding.Name,
			Symbol:        hv.Holding.Symbol,
			ImageURL:      hv.Holding.ImageURL,
			Amount:        hv.Holding.Amount.InexactFloat64(),
			PurchasePrice: hv.Holding.PurchasePrice.InexactFloat64(),
			PurchaseDate:  hv.Holding.PurchaseDate,
			HasQuote:      hv.HasQuote,
			Value:         hv.Value.InexactFloat64(),
			Change24h:     hv.Change24h.InexactFloat64(),
			ChangePct24h:  hv.ChangePct24h.InexactFloat64(),
			ValueDisplay:  format.CurrencyDecimal(hv.Value, currency, false),
			ChangeDisplay: format.PercentageDecimal(hv.ChangePct24h),
		}
		if hv.HasQuote {
			item.CurrentPrice = hv.Quote.CurrentPrice.InexactFloat64()
		}
		resp.Holdings = append(resp.Holdings, item)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) createHolding(c *gin.Context) {
	var req struct {
		CoinID        string     `json:"coin_id" binding:"required"`
		Name          string     `json:"name"`
		Symbol        string     `json:"symbol"`
		ImageURL      string     `json:"image_url"`
		Amount        float64    `json:"amount"`
		PurchasePrice float64    `json:"purchase_price"`
		PurchaseDate  *time.Time `json:"purchase_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purchaseDate := time.Time{}
	if req.PurchaseDate != nil {
		purchaseDate = *req.PurchaseDate
	}

	holding, err := domain.NewHolding(
		s.currentUserID(c),
		req.CoinID,
		req.Name,
		req.Symbol,
		req.ImageURL,
		decimal.NewFromFloat(req.Amount),
		decimal.NewFromFloat(req.PurchasePrice),
		purchaseDate,
	)
	if err != nil {
		if validationError(c, err) {
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := s.holdings.InsertHolding(c.Request.Context(), holding)
	if err != nil {
		s.storageError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": stored.ID})
}

// updateHolding sets a new amount. An amount of zero or below removes the
// holding instead of storing it.
func (s *Server) updateHolding(c *gin.Context) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	holding, err := s.holdings.GetHolding(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storageError(c, err)
		return
	}
	if holding.UserID != s.currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if req.Amount <= 0 {
		if _, err := s.holdings.DeleteHolding(c.Request.Context(), holding.ID); err != nil {
			s.storageError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": holding.ID, "deleted": true})
		return
	}

	if err := s.holdings.UpdateHoldingAmount(c.Request.Context(), holding.ID, decimal.NewFromFloat(req.Amount)); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": holding.ID, "amount": req.Amount})
}

func (s *Server) deleteHolding(c *gin.Context) {
	holding, err := s.holdings.GetHolding(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storageError(c, err)
		return
	}
	if holding.UserID != s.currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	deleted, err := s.holdings.DeleteHolding(c.Request.Context(), holding.ID)
	if err != nil {
		s.storageError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": holding.ID, "deleted": true})
}
