package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested user does not exist.
var ErrNotFound = errors.New("auth: user not found")

// Repository reads user records.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository backed by the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	const query = `
		SELECT id, username, password_hash, is_superuser, is_staff, created_at
		FROM users WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	const query = `
		SELECT id, username, password_hash, is_superuser, is_staff, created_at
		FROM users WHERE username = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, username))
}

func (r *repository) scanOne(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Superuser, &u.Staff, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
