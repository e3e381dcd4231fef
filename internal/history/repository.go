package history

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shubhamkulkarni01/emstrack/internal/shared"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Store backed by the provided pool.
func NewRepository(pool *pgxpool.Pool) Store {
	return &repository{pool: pool}
}

func (r *repository) Append(ctx context.Context, update VehicleUpdate) (int64, error) {
	const query = `
		INSERT INTO vehicle_updates
			(vehicle_id, status, orientation, latitude, longitude, location_timestamp, comment, updated_by, updated_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var latitude, longitude *float64
	if update.Location != nil {
		latitude = &update.Location.Latitude
		longitude = &update.Location.Longitude
	}

	var id int64
	err := r.pool.QueryRow(ctx, query,
		update.VehicleID, update.Status, update.Orientation,
		latitude, longitude, update.LocationTimestamp,
		update.Comment, update.UpdatedBy, update.UpdatedOn,
	).Scan(&id)
	return id, err
}

func (r *repository) ListByVehicle(ctx context.Context, vehicleID int64, limit, offset int) ([]VehicleUpdate, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM vehicle_updates WHERE vehicle_id = $1`, vehicleID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT id, vehicle_id, status, orientation, latitude, longitude,
		       location_timestamp, comment, updated_by, updated_on
		FROM vehicle_updates
		WHERE vehicle_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, vehicleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	updates := []VehicleUpdate{}
	for rows.Next() {
		var u VehicleUpdate
		var latitude, longitude *float64
		if err := rows.Scan(
			&u.ID, &u.VehicleID, &u.Status, &u.Orientation,
			&latitude, &longitude, &u.LocationTimestamp,
			&u.Comment, &u.UpdatedBy, &u.UpdatedOn,
		); err != nil {
			return nil, 0, err
		}
		if latitude != nil && longitude != nil {
			u.Location = &shared.Point{Latitude: *latitude, Longitude: *longitude}
		}
		updates = append(updates, u)
	}
	return updates, total, rows.Err()
}
