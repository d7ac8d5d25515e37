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
	holdingColumns = `id, user_id, coin_id, name, symbol, amount, purchase_price, purchase_date, image_url, created_at, updated_at`

	insertHoldingSQL = `INSERT INTO holdings (
        id, user_id, coin_id, name, symbol, amount, purchase_price, purchase_date, image_url, created_at, updated_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
    RETURNING ` + holdingColumns + `;`

	listHoldingsSQL = `SELECT ` + holdingColumns + `
    FROM holdings WHERE user_id = $1 ORDER BY created_at;`

	listAllHoldingsSQL = `SELECT ` + holdingColumns + `
    FROM holdings ORDER BY user_id, created_at;`

	getHoldingSQL = `SELECT ` + holdingColumns + `
    FROM holdings WHERE id = $1;`

	updateHoldingAmountSQL = `UPDATE holdings
    SET amount = $2, updated_at = $3
    WHERE id = $1;`

	deleteHoldingSQL = `DELETE FROM holdings WHERE id = $1;`
)

// HoldingStore defines operations for the portfolio collection.
type HoldingStore interface {
	ListHoldings(ctx context.Context, userID string) ([]domain.Holding, error)
	ListAllHoldings(ctx context.Context) ([]domain.Holding, error)
	GetHolding(ctx context.Context, id string) (domain.Holding, error)
	InsertHolding(ctx context.Context, holding domain.Holding) (domain.Holding, error)
	UpdateHoldingAmount(ctx context.Context, id string, amount decimal.Decimal) error
	DeleteHolding(ctx context.Context, id string) (bool, error)
}

// InsertHolding persists an add-to-portfolio record with a storage-assigned id.
func (s *Store) InsertHolding(ctx context.Context, holding domain.Holding) (domain.Holding, error) {
	pool, err := s.getPool()
	if err != nil {
		return domain.Holding{}, err
	}

	row := pool.QueryRow(ctx, insertHoldingSQL,
		newID(),
		holding.UserID,
		holding.CoinID,
		holding.Name,
		holding.Symbol,
		holding.Amount.String(),
		holding.PurchasePrice.String(),
		holding.PurchaseDate,
		holding.ImageURL,
		time.Now().UTC(),
	)
	return scanHolding(row)
}

// ListHoldings returns one user's portfolio.
func (s *Store) ListHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listHoldingsSQL, userID)
	if queryErr != nil {
		return nil, fmt.Errorf("list holdings: %w", queryErr)
	}
	defer rows.Close()

	return collectHoldings(rows)
}

// ListAllHoldings returns every holding, ordered by user. Used by the poll
// service to record per-user history points.
func (s *Store) ListAllHoldings(ctx context.Context) ([]domain.Holding, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAllHoldingsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list all holdings: %w", queryErr)
	}
	defer rows.Close()

	return collectHoldings(rows)
}

// GetHolding fetches one holding by id.
func (s *Store) GetHolding(ctx context.Context, id string) (domain.Holding, error) {
	pool, err := s.getPool()
	if err != nil {
		return domain.Holding{}, err
	}
	return scanHolding(pool.QueryRow(ctx, getHoldingSQL, id))
}

// UpdateHoldingAmount sets a new amount. Callers enforce the zero-amount
// deletion rule before reaching storage.
func (s *Store) UpdateHoldingAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, updateHoldingAmountSQL, id, amount.String(), time.Now().UTC())
	if execErr != nil {
		return fmt.Errorf("update holding amount: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteHolding removes one holding, reporting whether it existed.
func (s *Store) DeleteHolding(ctx context.Context, id string) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteHoldingSQL, id)
	if execErr != nil {
		return false, fmt.Errorf("delete holding: %w", execErr)
	}
	return cmdTag.RowsAffected() > 0, nil
}

func collectHoldings(rows pgx.Rows) ([]domain.Holding, error) {
	holdings := make([]domain.Holding, 0)
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return holdings, nil
}

func scanHolding(row pgx.Row) (domain.Holding, error) {
	var (
		h        domain.Holding
		amount   string
		purchase string
	)
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.CoinID,
		&h.Name,
		&h.Symbol,
		&amount,
		&purchase,
		&h.PurchaseDate,
		&h.ImageURL,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Holding{}, ErrNotFound
	}
	if err != nil {
		return domain.Holding{}, fmt.Errorf("scan holding: %w", err)
	}

	if h.Amount, err = decimal.NewFromString(amount); err != nil {
		return domain.Holding{}, fmt.Errorf("parse amount: %w", err)
	}
	if h.PurchasePrice, err = decimal.NewFromString(purchase); err != nil {
		return domain.Holding{}, fmt.Errorf("parse purchase price: %w", err)
	}
	return h, nil
}
