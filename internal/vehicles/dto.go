package vehicles

import (
	"time"

	"github.com/shubhamkulkarni01/emstrack/internal/history"
	"github.com/shubhamkulkarni01/emstrack/internal/shared"
)

// CreateVehicleRequest creates a new vehicle. Status always starts UK.
type CreateVehicleRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Capability string `json:"capability" validate:"omitempty,oneof=B A R"`
	Comment    string `json:"comment"`
}

// UpdateVehicleRequest is one partial change set. Location and its capture
// timestamp must be supplied together.
type UpdateVehicleRequest struct {
	Identifier        *string       `json:"identifier,omitempty"`
	Status            *string       `json:"status,omitempty"`
	Capability        *string       `json:"capability,omitempty"`
	Orientation       *float64      `json:"orientation,omitempty"`
	Location          *shared.Point `json:"location,omitempty"`
	LocationTimestamp *time.Time    `json:"location_timestamp,omitempty"`
	Comment           *string       `json:"comment,omitempty"`
}

func (r UpdateVehicleRequest) isEmpty() bool {
	return r.Identifier == nil && r.Status == nil && r.Capability == nil &&
		r.Orientation == nil && r.Location == nil &&
		r.LocationTimestamp == nil && r.Comment == nil
}

// changes flattens the request into a column update map, including the
// audit attributes stamped on every accepted mutation.
func (r UpdateVehicleRequest) changes(updatedBy int64, now time.Time) map[string]any {
	updates := map[string]any{
		"updated_by": updatedBy,
		"updated_on": now,
	}
	if r.Identifier != nil {
		updates["identifier"] = *r.Identifier
	}
	if r.Status != nil {
		updates["status"] = *r.Status
	}
	if r.Capability != nil {
		updates["capability"] = *r.Capability
	}
	if r.Orientation != nil {
		updates["orientation"] = *r.Orientation
	}
	if r.Location != nil {
		updates["latitude"] = r.Location.Latitude
		updates["longitude"] = r.Location.Longitude
	}
	if r.LocationTimestamp != nil {
		updates["location_timestamp"] = *r.LocationTimestamp
	}
	if r.Comment != nil {
		updates["comment"] = *r.Comment
	}
	return updates
}

// HistoryPage is the paginated response for a vehicle's update trail.
type HistoryPage struct {
	Count   int                     `json:"count"`
	Results []history.VehicleUpdate `json:"results"`
}
