package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coindeck/internal/domain"
)

const (
	insertHistorySQL = `INSERT INTO portfolio_history (id, user_id, currency, total_value, recorded_at)
    VALUES ($1,$2,$3,$4,$5);`

	listHistoryBetweenSQL = `SELECT id, user_id, currency, total_value, recorded_at
    FROM portfolio_history
    WHERE user_id = $1
      AND recorded_at >= $2
      AND recorded_at < $3
    ORDER BY recorded_at;`

	deleteHistoryBeforeSQL = `DELETE FROM portfolio_history WHERE recorded_at < $1;`
)

// HistoryStore defines operations for the portfolio valuation history used
// by the export command. History is write-only for valuation itself: live
// snapshots are always recomputed, never read back from here.
type HistoryStore interface {
	InsertHistoryPoint(ctx context.Context, point domain.HistoryPoint) error
	ListHistoryBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.HistoryPoint, error)
	DeleteHistoryBefore(ctx context.Context, olderThan time.Time) error
}

// InsertHistoryPoint appends one valuation observation.
func (s *Store) InsertHistoryPoint(ctx context.Context, point domain.HistoryPoint) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	_, execErr := pool.Exec(ctx, insertHistorySQL,
		newID(), point.UserID, point.Currency, point.TotalValue.String(), point.RecordedAt)
	if execErr != nil {
		return fmt.Errorf("insert history point: %w", execErr)
	}
	return nil
}

// ListHistoryBetween lists one user's valuation points within a window.
func (s *Store) ListHistoryBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.HistoryPoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listHistoryBetweenSQL, userID, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list history between: %w", queryErr)
	}
	defer rows.Close()

	points := make([]domain.HistoryPoint, 0)
	for rows.Next() {
		var (
			p     domain.HistoryPoint
			value string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Currency, &value, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan history point: %w", err)
		}
		if p.TotalValue, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("parse total value: %w", err)
		}
		points = append(points, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

// DeleteHistoryBefore trims old valuation points.
func (s *Store) DeleteHistoryBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteHistoryBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete history before: %w", execErr)
	}
	return nil
}
