package history

import (
	"context"
	"log/slog"
	"time"
)

// Store appends and reads vehicle update rows.
type Store interface {
	Append(ctx context.Context, update VehicleUpdate) (int64, error)
	ListByVehicle(ctx context.Context, vehicleID int64, limit, offset int) ([]VehicleUpdate, int, error)
}

// Recorder decides, from a mutation diff, whether to append a history
// record. Recording is best-effort relative to the primary write: failures
// are logged and swallowed, never surfaced to the mutation.
type Recorder struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder constructs a Recorder.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Significant reports whether the diff touches the audited field set:
// status, or location together with its timestamp. Identifier, comment and
// capability changes are not significant.
func Significant(before, after Snapshot) bool {
	if before.Status != after.Status {
		return true
	}
	locationChanged := !before.Location.Equal(after.Location)
	timestampChanged := !equalTime(before.LocationTimestamp, after.LocationTimestamp)
	return locationChanged || timestampChanged
}

// RecordVehicle appends a snapshot of the post-mutation state when the diff
// is significant. Returns the appended record, or nil when the change was
// insignificant or recording failed.
func (r *Recorder) RecordVehicle(ctx context.Context, vehicleID int64, before, after Snapshot, updatedBy int64) *VehicleUpdate {
	if !Significant(before, after) {
		return nil
	}
	update := VehicleUpdate{
		VehicleID:         vehicleID,
		Status:            after.Status,
		Orientation:       after.Orientation,
		Location:          after.Location,
		LocationTimestamp: after.LocationTimestamp,
		Comment:           after.Comment,
		UpdatedBy:         updatedBy,
		UpdatedOn:         r.now(),
	}
	id, err := r.store.Append(ctx, update)
	if err != nil {
		r.logger.Error("append vehicle history",
			slog.Int64("vehicle_id", vehicleID),
			slog.Any("error", err))
		return nil
	}
	update.ID = id
	return &update
}

// ListByVehicle returns history records for one vehicle, newest first.
func (r *Recorder) ListByVehicle(ctx context.Context, vehicleID int64, limit, offset int) ([]VehicleUpdate, int, error) {
	return r.store.ListByVehicle(ctx, vehicleID, limit, offset)
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
