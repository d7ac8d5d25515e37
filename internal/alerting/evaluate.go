package alerting

import (
	"coindeck/internal/domain"
)

// Status is the derived trigger state of an alert rule against the latest
// quote snapshot.
type Status string

const (
	// StatusTriggered means the threshold condition holds right now.
	StatusTriggered Status = "triggered"
	// StatusWaiting means a quote exists but the condition does not hold.
	StatusWaiting Status = "waiting"
	// StatusUnknown means no quote exists for the rule's coin. It is a
	// distinct state, not a flavour of waiting.
	StatusUnknown Status = "unknown"
)

// Evaluate derives the trigger state of one rule. Both boundaries are
// inclusive: an "above 100" rule triggers at exactly 100, as does a
// "below 100" rule.
//
// Evaluation deliberately ignores IsActive. An inactive rule's status is
// still computable; whether to show or deliver it is the caller's decision.
// No side effects, no I/O.
func Evaluate(rule domain.AlertRule, book domain.QuoteBook) Status {
	quote, ok := book.Lookup(rule.CoinID)
	if !ok {
		return StatusUnknown
	}

	switch rule.Condition {
	case domain.ConditionAbove:
		if quote.CurrentPrice.GreaterThanOrEqual(rule.TargetPrice) {
			return StatusTriggered
		}
	case domain.ConditionBelow:
		if quote.CurrentPrice.LessThanOrEqual(rule.TargetPrice) {
			return StatusTriggered
		}
	}
	return StatusWaiting
}

// Toggle flips the active flag without consulting live prices.
func Toggle(rule domain.AlertRule) domain.AlertRule {
	rule.IsActive = !rule.IsActive
	return rule
}
