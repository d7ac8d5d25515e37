package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"coindeck/internal/domain"
)

// AlertEvent captures a dispatched notification for auditing and the show
// command; it also backs cooldown decisions across restarts.
type AlertEvent struct {
	ID           string
	RuleID       string
	UserID       string
	CoinID       string
	Condition    domain.Condition
	TargetPrice  decimal.Decimal
	CurrentPrice decimal.Decimal
	Currency     string
	CreatedAt    time.Time
}

const (
	insertAlertEventSQL = `INSERT INTO alert_events (
        id, rule_id, user_id, coin_id, condition, target_price, current_price, currency, created_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id, rule_id, user_id, coin_id, condition, target_price, current_price, currency, created_at;`

	listRecentAlertEventsSQL = `SELECT id, rule_id, user_id, coin_id, condition, target_price, current_price, currency, created_at
    FROM alert_events
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertEventsBeforeSQL = `DELETE FROM alert_events WHERE created_at < $1;`
)

// AlertEventStore defines operations for notification auditing.
type AlertEventStore interface {
	InsertAlertEvent(ctx context.Context, event AlertEvent) (AlertEvent, error)
	ListRecentAlertEvents(ctx context.Context, limit int) ([]AlertEvent, error)
	DeleteAlertEventsBefore(ctx context.Context, olderThan time.Time) error
}

// InsertAlertEvent persists a dispatched notification.
func (s *Store) InsertAlertEvent(ctx context.Context, event AlertEvent) (AlertEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertEvent{}, err
	}

	row := pool.QueryRow(ctx, insertAlertEventSQL,
		newID(),
		event.RuleID,
		event.UserID,
		event.CoinID,
		string(event.Condition),
		event.TargetPrice.String(),
		event.CurrentPrice.String(),
		event.Currency,
		time.Now().UTC(),
	)
	return scanAlertEvent(row)
}

// ListRecentAlertEvents lists the most recent dispatches.
func (s *Store) ListRecentAlertEvents(ctx context.Context, limit int) ([]AlertEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertEventsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alert events: %w", queryErr)
	}
	defer rows.Close()

	events := make([]AlertEvent, 0, limit)
	for rows.Next() {
		event, scanErr := scanAlertEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

// DeleteAlertEventsBefore deletes historical dispatches.
func (s *Store) DeleteAlertEventsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertEventsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alert events before: %w", execErr)
	}
	return nil
}

func scanAlertEvent(row pgx.Row) (AlertEvent, error) {
	var (
		event     AlertEvent
		condition string
		target    string
		current   string
	)
	if err := row.Scan(
		&event.ID,
		&event.RuleID,
		&event.UserID,
		&event.CoinID,
		&condition,
		&target,
		&current,
		&event.Currency,
		&event.CreatedAt,
	); err != nil {
		return AlertEvent{}, fmt.Errorf("scan alert event: %w", err)
	}

	var err error
	if event.TargetPrice, err = decimal.NewFromString(target); err != nil {
		return AlertEvent{}, fmt.Errorf("parse target price: %w", err)
	}
	if event.CurrentPrice, err = decimal.NewFromString(current); err != nil {
		return AlertEvent{}, fmt.Errorf("parse current price: %w", err)
	}
	event.Condition = domain.Condition(condition)
	return event, nil
}
