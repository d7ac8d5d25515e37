package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation marks user input rejected before entering the data model.
// Callers must be able to tell it apart from infrastructure failures.
var ErrValidation = errors.New("validation")

// User is a registered dashboard account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Holding is a user's recorded position in one coin. Amount and purchase
// price are strictly positive; an amount update to zero or below deletes the
// holding instead of storing it.
type Holding struct {
	ID            string
	UserID        string
	CoinID        string
	Name          string
	Symbol        string
	Amount        decimal.Decimal
	PurchasePrice decimal.Decimal
	PurchaseDate  time.Time
	ImageURL      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewHolding validates an add-to-portfolio request.
func NewHolding(userID, coinID, name, symbol, imageURL string, amount, purchasePrice decimal.Decimal, purchaseDate time.Time) (Holding, error) {
	if userID == "" || coinID == "" {
		return Holding{}, fmt.Errorf("%w: user and coin are required", ErrValidation)
	}
	if !amount.IsPositive() {
		return Holding{}, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if !purchasePrice.IsPositive() {
		return Holding{}, fmt.Errorf("%w: purchase price must be greater than zero", ErrValidation)
	}
	if purchaseDate.IsZero() {
		purchaseDate = time.Now().UTC()
	}
	return Holding{
		UserID:        userID,
		CoinID:        coinID,
		Name:          name,
		Symbol:        symbol,
		Amount:        amount,
		PurchasePrice: purchasePrice,
		PurchaseDate:  purchaseDate,
		ImageURL:      imageURL,
	}, nil
}

// Condition is the direction of a price alert threshold.
type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

// ParseCondition validates the wire form of a condition.
func ParseCondition(s string) (Condition, error) {
	switch Condition(s) {
	case ConditionAbove, ConditionBelow:
		return Condition(s), nil
	default:
		return "", fmt.Errorf("%w: condition must be %q or %q", ErrValidation, ConditionAbove, ConditionBelow)
	}
}

// AlertRule is a user-defined price threshold. Trigger state is derived from
// the latest quote, never stored; IsActive only gates notification delivery.
type AlertRule struct {
	ID          string
	UserID      string
	CoinID      string
	Name        string
	Symbol      string
	TargetPrice decimal.Decimal
	Condition   Condition
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewAlertRule validates a create-alert request. Rules start active.
func NewAlertRule(userID, coinID, name, symbol string, targetPrice decimal.Decimal, condition Condition) (AlertRule, error) {
	if userID == "" || coinID == "" {
		return AlertRule{}, fmt.Errorf("%w: user and coin are required", ErrValidation)
	}
	if !targetPrice.IsPositive() {
		return AlertRule{}, fmt.Errorf("%w: target price must be greater than zero", ErrValidation)
	}
	if _, err := ParseCondition(string(condition)); err != nil {
		return AlertRule{}, err
	}
	return AlertRule{
		UserID:      userID,
		CoinID:      coinID,
		Name:        name,
		Symbol:      symbol,
		TargetPrice: targetPrice,
		Condition:   condition,
		IsActive:    true,
	}, nil
}

// WatchlistEntry marks a coin a user tracks without holding it.
type WatchlistEntry struct {
	ID        string
	UserID    string
	CoinID    string
	Name      string
	Symbol    string
	ImageURL  string
	CreatedAt time.Time
}

// HistoryPoint is one recorded portfolio valuation, kept for charting only.
// Live snapshots are always recomputed from holdings and quotes.
type HistoryPoint struct {
	ID         string
	UserID     string
	Currency   string
	TotalValue decimal.Decimal
	RecordedAt time.Time
}
