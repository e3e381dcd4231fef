package facilities

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

// Repository persists facilities, their equipment items, and the equipment
// type reference data. Errors carry the httpx sentinels.
type Repository interface {
	Get(ctx context.Context, id int64) (*Facility, error)
	List(ctx context.Context, vis access.Visibility) ([]Facility, error)
	ListAll(ctx context.Context) ([]Facility, error)
	Create(ctx context.Context, f Facility) (*Facility, error)
	Update(ctx context.Context, id int64, updates map[string]any) (*Facility, error)
	Delete(ctx context.Context, id int64) error

	GetEquipmentType(ctx context.Context, id int64) (*EquipmentType, error)
	ListEquipment(ctx context.Context, facilityID int64) ([]EquipmentItem, error)
	GetEquipmentItem(ctx context.Context, facilityID, equipmentID int64) (*EquipmentItem, error)
	AddEquipment(ctx context.Context, item EquipmentItem) (*EquipmentItem, error)
	UpdateEquipment(ctx context.Context, facilityID, equipmentID int64, updates map[string]any) (*EquipmentItem, error)
	RemoveEquipment(ctx context.Context, facilityID, equipmentID int64) error
	DistinctEquipment(ctx context.Context, facilityID int64) ([]EquipmentType, error)
}

const facilityColumns = `id, name, latitude, longitude, comment, updated_by, updated_on`

const equipmentItemColumns = `ei.facility_id, ei.equipment_id,
	et.id, et.name, et.etype, et.toggleable,
	ei.value, ei.comment, ei.updated_by, ei.updated_on`

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository backed by the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Facility, error) {
	query := fmt.Sprintf(`SELECT %s FROM facilities WHERE id = $1`, facilityColumns)
	f, err := scanFacility(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *repository) List(ctx context.Context, vis access.Visibility) ([]Facility, error) {
	if vis.All {
		return r.ListAll(ctx)
	}
	if len(vis.IDs) == 0 {
		return []Facility{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM facilities WHERE id = ANY($1) ORDER BY id`, facilityColumns)
	rows, err := r.pool.Query(ctx, query, vis.IDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFacilities(rows)
}

func (r *repository) ListAll(ctx context.Context) ([]Facility, error) {
	query := fmt.Sprintf(`SELECT %s FROM facilities ORDER BY id`, facilityColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFacilities(rows)
}

func (r *repository) Create(ctx context.Context, f Facility) (*Facility, error) {
	var latitude, longitude *float64
	if f.Location != nil {
		latitude, longitude = &f.Location.Latitude, &f.Location.Longitude
	}
	query := fmt.Sprintf(`
		INSERT INTO facilities (name, latitude, longitude, comment, updated_by, updated_on)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, facilityColumns)

	created, err := scanFacility(r.pool.QueryRow(ctx, query,
		f.Name, latitude, longitude, f.Comment, f.UpdatedBy, f.UpdatedOn))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: name %q", httpx.ErrDuplicate, f.Name)
		}
		return nil, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) (*Facility, error) {
	query := "UPDATE facilities SET "
	var args []any
	argPos := 1

	for _, column := range []string{
		"name", "latitude", "longitude", "comment", "updated_by", "updated_on",
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

	query += fmt.Sprintf(" WHERE id = $%d RETURNING %s", argPos, facilityColumns)
	args = append(args, id)

	f, err := scanFacility(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: name taken", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return f, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) GetEquipmentType(ctx context.Context, id int64) (*EquipmentType, error) {
	var et EquipmentType
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, etype, toggleable FROM equipment_types WHERE id = $1`, id).
		Scan(&et.ID, &et.Name, &et.Type, &et.Toggleable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &et, nil
}

func (r *repository) ListEquipment(ctx context.Context, facilityID int64) ([]EquipmentItem, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM equipment_items ei
		JOIN equipment_types et ON et.id = ei.equipment_id
		WHERE ei.facility_id = $1
		ORDER BY ei.equipment_id`, equipmentItemColumns)
	rows, err := r.pool.Query(ctx, query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEquipmentItems(rows)
}

func (r *repository) GetEquipmentItem(ctx context.Context, facilityID, equipmentID int64) (*EquipmentItem, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM equipment_items ei
		JOIN equipment_types et ON et.id = ei.equipment_id
		WHERE ei.facility_id = $1 AND ei.equipment_id = $2`, equipmentItemColumns)
	item, err := scanEquipmentItem(r.pool.QueryRow(ctx, query, facilityID, equipmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *repository) AddEquipment(ctx context.Context, item EquipmentItem) (*EquipmentItem, error) {
	var created *EquipmentItem
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO equipment_items (facility_id, equipment_id, value, comment, updated_by, updated_on)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.FacilityID, item.EquipmentID, item.Value, item.Comment, item.UpdatedBy, item.UpdatedOn)
		if err != nil {
			return err
		}
		query := fmt.Sprintf(`
			SELECT %s FROM equipment_items ei
			JOIN equipment_types et ON et.id = ei.equipment_id
			WHERE ei.facility_id = $1 AND ei.equipment_id = $2`, equipmentItemColumns)
		created, err = scanEquipmentItem(tx.QueryRow(ctx, query, item.FacilityID, item.EquipmentID))
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: equipment %d already present", httpx.ErrDuplicate, item.EquipmentID)
		}
		return nil, err
	}
	return created, nil
}

func (r *repository) UpdateEquipment(ctx context.Context, facilityID, equipmentID int64, updates map[string]any) (*EquipmentItem, error) {
	query := "UPDATE equipment_items SET "
	var args []any
	argPos := 1

	for _, column := range []string{"value", "comment", "updated_by", "updated_on"} {
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

	query += fmt.Sprintf(" WHERE facility_id = $%d AND equipment_id = $%d", argPos, argPos+1)
	args = append(args, facilityID, equipmentID)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, httpx.ErrNotFound
	}
	return r.GetEquipmentItem(ctx, facilityID, equipmentID)
}

func (r *repository) RemoveEquipment(ctx context.Context, facilityID, equipmentID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM equipment_items WHERE facility_id = $1 AND equipment_id = $2`,
		facilityID, equipmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) DistinctEquipment(ctx context.Context, facilityID int64) ([]EquipmentType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT et.id, et.name, et.etype, et.toggleable
		FROM equipment_items ei
		JOIN equipment_types et ON et.id = ei.equipment_id
		WHERE ei.facility_id = $1
		ORDER BY et.id`, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []EquipmentType{}
	for rows.Next() {
		var et EquipmentType
		if err := rows.Scan(&et.ID, &et.Name, &et.Type, &et.Toggleable); err != nil {
			return nil, err
		}
		types = append(types, et)
	}
	return types, rows.Err()
}

func scanFacility(row pgx.Row) (*Facility, error) {
	var f Facility
	var latitude, longitude *float64
	err := row.Scan(&f.ID, &f.Name, &latitude, &longitude, &f.Comment, &f.UpdatedBy, &f.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if latitude != nil && longitude != nil {
		f.Location = &shared.Point{Latitude: *latitude, Longitude: *longitude}
	}
	return &f, nil
}

func collectFacilities(rows pgx.Rows) ([]Facility, error) {
	facilities := []Facility{}
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		facilities = append(facilities, *f)
	}
	return facilities, rows.Err()
}

func scanEquipmentItem(row pgx.Row) (*EquipmentItem, error) {
	var item EquipmentItem
	err := row.Scan(
		&item.FacilityID, &item.EquipmentID,
		&item.Equipment.ID, &item.Equipment.Name, &item.Equipment.Type, &item.Equipment.Toggleable,
		&item.Value, &item.Comment, &item.UpdatedBy, &item.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func collectEquipmentItems(rows pgx.Rows) ([]EquipmentItem, error) {
	items := []EquipmentItem{}
	for rows.Next() {
		item, err := scanEquipmentItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
