package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"coindeck/internal/alerting"
	"coindeck/internal/domain"
	"coindeck/internal/format"
)

type alertResponse struct {
	ID            string    `json:"id"`
	CoinID        string    `json:"coin_id"`
	Name          string    `json:"name"`
	Symbol        string    `json:"symbol"`
	TargetPrice   float64   `json:"target_price"`
	Condition     string    `json:"condition"`
	IsActive      bool      `json:"is_active"`
	Status        string    `json:"status"`
	CurrentPrice  float64   `json:"current_price"`
	TargetDisplay string    `json:"target_display"`
	CreatedAt     time.Time `json:"created_at"`
}

// getAlerts lists the user's rules with their trigger state derived against
// the latest snapshot. Status is never read from storage.
func (s *Server) getAlerts(c *gin.Context) {
	rules, err := s.alerts.ListAlerts(c.Request.Context(), s.currentUserID(c))
	if err != nil {
		s.storageError(c, err)
		return
	}

	book, _, err := s.quotes.QuotesFor(c.Request.Context(), s.quotes.Currency())
	if err != nil {
		s.logger.Warn().Err(err).Msg("quotes unavailable, alert statuses degrade to unknown")
		book = domain.QuoteBook{}
	}

	currency := s.quotes.Currency()
	resp := make([]alertResponse, 0, len(rules))
	for _, rule := range rules {
		item := alertResponse{
			ID:            rule.ID,
			CoinID:        rule.CoinID,
			Name:          rule.Name,
			Symbol:        rule.Symbol,
			TargetPrice:   rule.TargetPrice.InexactFloat64(),
			Condition:     string(rule.Condition),
			IsActive:      rule.IsActive,
			Status:        string(alerting.Evaluate(rule, book)),
			TargetDisplay: format.CurrencyDecimal(rule.TargetPrice, currency, false),
			CreatedAt:     rule.CreatedAt,
		}
		if quote, ok := book.Lookup(rule.CoinID); ok {
			item.CurrentPrice = quote.CurrentPrice.InexactFloat64()
		}
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, gin.H{"alerts": resp})
}

func (s *Server) createAlert(c *gin.Context) {
	var req struct {
		CoinID      string  `json:"coin_id" binding:"required"`
		Name        string  `json:"name"`
		Symbol      string  `json:"symbol"`
		TargetPrice float64 `json:"target_price"`
		Condition   string  `json:"condition" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	condition, err := domain.ParseCondition(req.Condition)
	if err != nil {
		validationError(c, err)
		return
	}

	rule, err := domain.NewAlertRule(
		s.currentUserID(c),
		req.CoinID,
		req.Name,
		req.Symbol,
		decimal.NewFromFloat(req.TargetPrice),
		condition,
	)
	if err != nil {
		if validationError(c, err) {
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := s.alerts.InsertAlert(c.Request.Context(), rule)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": stored.ID})
}

func (s *Server) updateAlert(c *gin.Context) {
	var req struct {
		TargetPrice float64 `json:"target_price"`
		Condition   string  `json:"condition" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	condition, err := domain.ParseCondition(req.Condition)
	if err != nil {
		validationError(c, err)
		return
	}

	target := decimal.NewFromFloat(req.TargetPrice)
	if !target.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target price must be greater than zero"})
		return
	}

	rule, err := s.ownedAlert(c)
	if err != nil {
		return
	}

	if err := s.alerts.UpdateAlert(c.Request.Context(), rule.ID, target, condition); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rule.ID})
}

// toggleAlert flips delivery on or off. Trigger state is unaffected; an
// inactive rule still evaluates, it just never notifies.
func (s *Server) toggleAlert(c *gin.Context) {
	rule, err := s.ownedAlert(c)
	if err != nil {
		return
	}

	flipped := alerting.Toggle(rule)
	if err := s.alerts.SetAlertActive(c.Request.Context(), rule.ID, flipped.IsActive); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rule.ID, "is_active": flipped.IsActive})
}

func (s *Server) deleteAlert(c *gin.Context) {
	rule, err := s.ownedAlert(c)
	if err != nil {
		return
	}

	deleted, err := s.alerts.DeleteAlert(c.Request.Context(), rule.ID)
	if err != nil {
		s.storageError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rule.ID, "deleted": true})
}

// ownedAlert loads the :id rule and enforces ownership. On failure the
// response is already written and the error is only a control-flow signal.
func (s *Server) ownedAlert(c *gin.Context) (domain.AlertRule, error) {
	rule, err := s.alerts.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storageError(c, err)
		return domain.AlertRule{}, err
	}
	if rule.UserID != s.currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return domain.AlertRule{}, domain.ErrValidation
	}
	return rule, nil
}
