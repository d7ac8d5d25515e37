package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"coindeck/internal/domain"
)

const (
	insertUserSQL = `INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$5)
    RETURNING id, email, name, password_hash, created_at, updated_at;`

	getUserByEmailSQL = `SELECT id, email, name, password_hash, created_at, updated_at
    FROM users WHERE email = $1;`

	getUserByIDSQL = `SELECT id, email, name, password_hash, created_at, updated_at
    FROM users WHERE id = $1;`
)

// UserStore defines operations for user accounts.
type UserStore interface {
	InsertUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

// InsertUser persists a new account with a storage-assigned id.
func (s *Store) InsertUser(ctx context.Context, user domain.User) (domain.User, error) {
	pool, err := s.getPool()
	if err != nil {
		return domain.User{}, err
	}

	row := pool.QueryRow(ctx, insertUserSQL, newID(), user.Email, user.Name, user.PasswordHash, time.Now().UTC())
	return scanUser(row)
}

// GetUserByEmail looks an account up by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	pool, err := s.getPool()
	if err != nil {
		return domain.User{}, err
	}
	return scanUser(pool.QueryRow(ctx, getUserByEmailSQL, email))
}

// GetUserByID looks an account up by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	pool, err := s.getPool()
	if err != nil {
		return domain.User{}, err
	}
	return scanUser(pool.QueryRow(ctx, getUserByIDSQL, id))
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
