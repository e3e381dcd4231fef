package access

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoGrant indicates that no grant row exists for the pair.
var ErrNoGrant = errors.New("access: no grant")

// GrantStore reads permission grants. Implementations must be safe for
// unbounded concurrent use.
type GrantStore interface {
	Get(ctx context.Context, userID int64, class ResourceClass, resourceID int64) (*Grant, error)
	ListReadable(ctx context.Context, userID int64, class ResourceClass) ([]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a GrantStore backed by the provided pool.
func NewRepository(pool *pgxpool.Pool) GrantStore {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, userID int64, class ResourceClass, resourceID int64) (*Grant, error) {
	const query = `
		SELECT user_id, resource_class, resource_id, can_read, can_write
		FROM access_grants
		WHERE user_id = $1 AND resource_class = $2 AND resource_id = $3`

	var g Grant
	err := r.pool.QueryRow(ctx, query, userID, string(class), resourceID).
		Scan(&g.UserID, &g.Class, &g.ResourceID, &g.CanRead, &g.CanWrite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoGrant
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) ListReadable(ctx context.Context, userID int64, class ResourceClass) ([]int64, error) {
	const query = `
		SELECT resource_id
		FROM access_grants
		WHERE user_id = $1 AND resource_class = $2 AND can_read`

	rows, err := r.pool.Query(ctx, query, userID, string(class))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
