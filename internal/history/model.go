// Package history appends immutable audit snapshots for significant vehicle
// changes. History is a movement/status trail, not a generic change log.
package history

import (
	"time"

	"github.com/shubhamkulkarni01/emstrack/internal/shared"
)

// VehicleUpdate is one append-only snapshot of a vehicle at a point in time.
// Rows are never mutated or deleted.
type VehicleUpdate struct {
	ID                int64         `json:"id"`
	VehicleID         int64         `json:"vehicle_id"`
	Status            string        `json:"status"`
	Orientation       float64       `json:"orientation"`
	Location          *shared.Point `json:"location"`
	LocationTimestamp *time.Time    `json:"location_timestamp"`
	Comment           string        `json:"comment"`
	UpdatedBy         int64         `json:"updated_by"`
	UpdatedOn         time.Time     `json:"updated_on"`
}

// Snapshot is the subset of vehicle state the recorder inspects and stores.
type Snapshot struct {
	Status            string
	Orientation       float64
	Location          *shared.Point
	LocationTimestamp *time.Time
	Comment           string
}
