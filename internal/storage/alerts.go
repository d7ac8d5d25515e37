package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"coindeck/internal/domain"
)

const (
	alertColumns = `id, user_id, coin_id, name, symbol, target_price, condition, is_active, created_at, updated_at`

	insertAlertSQL = `INSERT INTO alert_rules (
        id, user_id, coin_id, name, symbol, target_price, condition, is_active, created_at, updated_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
    RETURNING ` + alertColumns + `;`

	listAlertsSQL = `SELECT ` + alertColumns + `
    FROM alert_rules WHERE user_id = $1 ORDER BY created_at;`

	listActiveAlertsSQL = `SELECT ` + alertColumns + `
    FROM alert_rules WHERE is_active ORDER BY user_id, created_at;`

	getAlertSQL = `SELECT ` + alertColumns + `
    FROM alert_rules WHERE id = $1;`

	updateAlertSQL = `UPDATE alert_rules
    SET target_price = $2, condition = $3, updated_at = $4
    WHERE id = $1;`

	setAlertActiveSQL = `UPDATE alert_rules
    SET is_active = $2, updated_at = $3
    WHERE id = $1;`

	deleteAlertSQL = `DELETE FROM alert_rules WHERE id = $1;`
)

// AlertStore defines operations for the alert-rule collection.
type AlertStore interface {
	ListAlerts(ctx context.Context, userID string) ([]domain.AlertRule, error)
	ListActiveAlerts(ctx context.Context) ([]domain.AlertRule, error)
	GetAlert(ctx context.Context, id string) (domain.AlertRule, error)
	InsertAlert(ctx context.Context, rule domain.AlertRule) (domain.AlertRule, error)
	UpdateAlert(ctx context.Context, id string, targetPrice decimal.Decimal, condition domain.Condition) error
	SetAlertActive(ctx context.Context, id string, active bool) error
	DeleteAlert(ctx context.Context, id string) (bool, error)
}

// InsertAlert persists a new rule with a storage-assigned id.
func (s *Store) InsertAlert(ctx context.Context, rule domain.AlertRule) (domain.AlertRule, error) {
	pool, err := s.getPool()
	if err != nil {
		return domain.AlertRule{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		newID(),
		rule.UserID,
		rule.CoinID,
		rule.Name,
		rule.Symbol,
		rule.TargetPrice.String(),
		string(rule.Condition),
		rule.IsActive,
		time.Now().UTC(),
	)
	return scanAlert(row)
}

// ListAlerts returns one user's rules.
func (s *Store) ListAlerts(ctx context.Context, userID string) ([]domain.AlertRule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAlertsSQL, userID)
	if queryErr != nil {
		return nil, fmt.Errorf("list alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// ListActiveAlerts returns every active rule across users for the poll
// service's notification sweep.
func (s *Store) ListActiveAlerts(ctx context.Context) ([]domain.AlertRule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActiveAlertsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list active alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// GetAlert fetches one rule by id.
func (s *Store) GetAlert(ctx context.Context, id string) (domain.AlertRule, error) {
	pool, err := s.getPool()
	if err != nil {
		return domain.AlertRule{}, err
	}
	return scanAlert(pool.QueryRow(ctx, getAlertSQL, id))
}

// UpdateAlert rewrites a rule's threshold and direction.
func (s *Store) UpdateAlert(ctx context.Context, id string, targetPrice decimal.Decimal, condition domain.Condition) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, updateAlertSQL, id, targetPrice.String(), string(condition), time.Now().UTC())
	if execErr != nil {
		return fmt.Errorf("update alert: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAlertActive flips delivery on or off without touching the threshold.
func (s *Store) SetAlertActive(ctx context.Context, id string, active bool) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, setAlertActiveSQL, id, active, time.Now().UTC())
	if execErr != nil {
		return fmt.Errorf("set alert active: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAlert removes one rule, reporting whether it existed.
func (s *Store) DeleteAlert(ctx context.Context, id string) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteAlertSQL, id)
	if execErr != nil {
		return false, fmt.Errorf("delete alert: %w", execErr)
	}
	return cmdTag.RowsAffected() > 0, nil
}

func collectAlerts(rows pgx.Rows) ([]domain.AlertRule, error) {
	rules := make([]domain.AlertRule, 0)
	for rows.Next() {
		rule, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return rules, nil
}

func scanAlert(row pgx.Row) (domain.AlertRule, error) {
	var (
		rule      domain.AlertRule
		target    string
		condition string
	)
	err := row.Scan(
		&rule.ID,
		&rule.UserID,
		&rule.CoinID,
		&rule.Name,
		&rule.Symbol,
		&target,
		&condition,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AlertRule{}, ErrNotFound
	}
	if err != nil {
		return domain.AlertRule{}, fmt.Errorf("scan alert: %w", err)
	}

	if rule.TargetPrice, err = decimal.NewFromString(target); err != nil {
		return domain.AlertRule{}, fmt.Errorf("parse target price: %w", err)
	}
	rule.Condition = domain.Condition(condition)
	return rule, nil
}
