package storage

import (
	"context"
	"fmt"
	"time"

	"coindeck/internal/domain"
)

const (
	insertWatchSQL = `INSERT INTO watchlist_entries (id, user_id, coin_id, name, symbol, image_url, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (user_id, coin_id) DO NOTHING;`

	listWatchlistSQL = `SELECT id, user_id, coin_id, name, symbol, image_url, created_at
    FROM watchlist_entries WHERE user_id = $1;`

	deleteWatchSQL = `DELETE FROM watchlist_entries WHERE user_id = $1 AND coin_id = $2;`
)

// WatchlistStore defines operations for the watchlist collection.
type WatchlistStore interface {
	ListWatchlist(ctx context.Context, userID string) ([]domain.WatchlistEntry, error)
	InsertWatchlistEntry(ctx context.Context, entry domain.WatchlistEntry) error
	DeleteWatchlistEntry(ctx context.Context, userID, coinID string) (bool, error)
}

// ListWatchlist returns one user's watched coins. No ordering guarantee.
func (s *Store) ListWatchlist(ctx context.Context, userID string) ([]domain.WatchlistEntry, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listWatchlistSQL, userID)
	if queryErr != nil {
		return nil, fmt.Errorf("list watchlist: %w", queryErr)
	}
	defer rows.Close()

	entries := make([]domain.WatchlistEntry, 0)
	for rows.Next() {
		var e domain.WatchlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.CoinID, &e.Name, &e.Symbol, &e.ImageURL, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}

// InsertWatchlistEntry adds a coin to a user's watchlist. Inserting an
// already-watched coin is a no-op, keeping membership unique per user.
func (s *Store) InsertWatchlistEntry(ctx context.Context, entry domain.WatchlistEntry) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	_, execErr := pool.Exec(ctx, insertWatchSQL,
		newID(), entry.UserID, entry.CoinID, entry.Name, entry.Symbol, entry.ImageURL, time.Now().UTC())
	if execErr != nil {
		return fmt.Errorf("insert watchlist entry: %w", execErr)
	}
	return nil
}

// DeleteWatchlistEntry removes a coin from a user's watchlist.
func (s *Store) DeleteWatchlistEntry(ctx context.Context, userID, coinID string) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteWatchSQL, userID, coinID)
	if execErr != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", execErr)
	}
	return cmdTag.RowsAffected() > 0, nil
}
