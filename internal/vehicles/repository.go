package vehicles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shubhamkulkarni01/emstrack/internal/access"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/db"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/httpx"
	"github.com/shubhamkulkarni01/emstrack/internal/shared"
)

// Repository persists vehicles. Errors carry the httpx sentinels so the
// HTTP layer can translate them uniformly.
type Repository interface {
	Get(ctx context.Context, id int64) (*Vehicle, error)
	List(ctx context.Context, vis access.Visibility) ([]Vehicle, error)
	ListAll(ctx context.Context) ([]Vehicle, error)
	Create(ctx context.Context, v Vehicle) (*Vehicle, error)
	Update(ctx context.Context, id int64, updates map[string]any) (*Vehicle, error)
	Delete(ctx context.Context, id int64) error
}

const vehicleColumns = `id, identifier, status, capability, orientation,
	latitude, longitude, location_timestamp, comment, updated_by, updated_on`

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository backed by the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM vehicles WHERE id = $1`, vehicleColumns)
	v, err := scanVehicle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *repository) List(ctx context.Context, vis access.Visibility) ([]Vehicle, error) {
	if vis.All {
		return r.ListAll(ctx)
	}
	if len(vis.IDs) == 0 {
		return []Vehicle{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM vehicles WHERE id = ANY($1) ORDER BY id`, vehicleColumns)
	rows, err := r.pool.Query(ctx, query, vis.IDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVehicles(rows)
}

func (r *repository) ListAll(ctx context.Context) ([]Vehicle, error) {
	query := fmt.Sprintf(`SELECT %s FROM vehicles ORDER BY id`, vehicleColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVehicles(rows)
}

func (r *repository) Create(ctx context.Context, v Vehicle) (*Vehicle, error) {
	query := fmt.Sprintf(`
		INSERT INTO vehicles (identifier, status, capability, orientation, comment, updated_by, updated_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, vehicleColumns)

	created, err := scanVehicle(r.pool.QueryRow(ctx, query,
		v.Identifier, v.Status, v.Capability, v.Orientation, v.Comment, v.UpdatedBy, v.UpdatedOn))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: identifier %q", httpx.ErrDuplicate, v.Identifier)
		}
		return nil, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) (*Vehicle, error) {
	query := "UPDATE vehicles SET "
	var args []any
	argPos := 1

	for _, column := range []string{
		"identifier", "status", "capability", "orientation",
		"latitude", "longitude", "location_timestamp", "comment",
		"updated_by", "updated_on",
	} {
		value, ok := updates[column]
		if !ok {
			continue
		}
		if argPos > 1 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", column, argPos)
		args = append(args, value)
		argPos++
	}

	query += fmt.Sprintf(" WHERE id = $%d RETURNING %s", argPos, vehicleColumns)
	args = append(args, id)

	v, err := scanVehicle(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: identifier taken", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return v, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	var latitude, longitude *float64
	err := row.Scan(
		&v.ID, &v.Identifier, &v.Status, &v.Capability, &v.Orientation,
		&latitude, &longitude, &v.LocationTimestamp, &v.Comment,
		&v.UpdatedBy, &v.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	if latitude != nil && longitude != nil {
		v.Location = &shared.Point{Latitude: *latitude, Longitude: *longitude}
	}
	return &v, nil
}

func collectVehicles(rows pgx.Rows) ([]Vehicle, error) {
	vehicles := []Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}
