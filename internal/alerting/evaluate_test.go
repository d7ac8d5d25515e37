package alerting

import (
	"testing"

	"github.com/shopspring/decimal"

	"coindeck/internal/domain"
)

func rule(coinID string, target float64, cond domain.Condition, active bool) domain.AlertRule {
	return domain.AlertRule{
		ID:          "a1",
		UserID:      "u1",
		CoinID:      coinID,
		TargetPrice: decimal.NewFromFloat(target),
		Condition:   cond,
		IsActive:    active,
	}
}

func bookWithPrice(coinID string, price float64) domain.QuoteBook {
	q, err := domain.NewQuote(coinID, "btc", "Bitcoin", "", price, 0, 0, 0)
	if err != nil {
		panic(err)
	}
	return domain.NewQuoteBook([]domain.Quote{q})
}

func TestEvaluateAboveBoundaryInclusive(t *testing.T) {
	book := bookWithPrice("bitcoin", 100)
	if got := Evaluate(rule("bitcoin", 100, domain.ConditionAbove, true), book); got != StatusTriggered {
		t.Fatalf("above at exact target = %s, want triggered", got)
	}
	if got := Evaluate(rule("bitcoin", 100.01, domain.ConditionAbove, true), book); got != StatusWaiting {
		t.Fatalf("above with price below target = %s, want waiting", got)
	}
}

func TestEvaluateBelowBoundaryInclusive(t *testing.T) {
	book := bookWithPrice("bitcoin", 100)
	if got := Evaluate(rule("bitcoin", 100, domain.ConditionBelow, true), book); got != StatusTriggered {
		t.Fatalf("below at exact target = %s, want triggered", got)
	}
	if got := Evaluate(rule("bitcoin", 99.99, domain.ConditionBelow, true), book); got != StatusWaiting {
		t.Fatalf("below with price above target = %s, want waiting", got)
	}
}

func TestEvaluateMissingQuoteIsUnknown(t *testing.T) {
	book := bookWithPrice("bitcoin", 100)
	got := Evaluate(rule("dogecoin", 1, domain.ConditionAbove, true), book)
	if got != StatusUnknown {
		t.Fatalf("missing quote = %s, want unknown", got)
	}
	if got == StatusWaiting || got == StatusTriggered {
		t.Fatal("unknown must be distinct from waiting and triggered")
	}
}

func TestEvaluateIgnoresActiveFlag(t *testing.T) {
	book := bookWithPrice("bitcoin", 150)
	active := Evaluate(rule("bitcoin", 100, domain.ConditionAbove, true), book)
	inactive := Evaluate(rule("bitcoin", 100, domain.ConditionAbove, false), book)
	if active != inactive {
		t.Fatalf("status must not depend on is_active: %s vs %s", active, inactive)
	}
	if inactive != StatusTriggered {
		t.Fatalf("inactive rule status = %s, want triggered", inactive)
	}
}

func TestToggleIsPureFlip(t *testing.T) {
	r := rule("bitcoin", 100, domain.ConditionAbove, true)
	flipped := Toggle(r)
	if flipped.IsActive {
		t.Fatal("toggle must deactivate an active rule")
	}
	if !r.IsActive {
		t.Fatal("toggle must not mutate its input")
	}
	if back := Toggle(flipped); !back.IsActive {
		t.Fatal("double toggle must restore the original state")
	}
}
