package facilities

import (
	"time"

	"github.com/shubhamkulkarni01/emstrack/internal/shared"
)

type CreateFacilityRequest struct {
	Name     string        `json:"name" validate:"required,max=100"`
	Location *shared.Point `json:"location"`
	Comment  string        `json:"comment"`
}

type UpdateFacilityRequest struct {
	Name     *string       `json:"name,omitempty"`
	Location *shared.Point `json:"location,omitempty"`
	Comment  *string       `json:"comment,omitempty"`
}

func (r UpdateFacilityRequest) isEmpty() bool {
	return r.Name == nil && r.Location == nil && r.Comment == nil
}

func (r UpdateFacilityRequest) changes(updatedBy int64, now time.Time) map[string]any {
	updates := map[string]any{
		"updated_by": updatedBy,
		"updated_on": now,
	}
	if r.Name != nil {
		updates["name"] = *r.Name
	}
	if r.Location != nil {
		updates["latitude"] = r.Location.Latitude
		updates["longitude"] = r.Location.Longitude
	}
	if r.Comment != nil {
		updates["comment"] = *r.Comment
	}
	return updates
}

type AddEquipmentRequest struct {
	EquipmentID int64  `json:"equipment_id" validate:"required"`
	Value       string `json:"value" validate:"required"`
	Comment     string `json:"comment"`
}

type UpdateEquipmentRequest struct {
	Value   *string `json:"value,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

func (r UpdateEquipmentRequest) isEmpty() bool {
	return r.Value == nil && r.Comment == nil
}

func (r UpdateEquipmentRequest) changes(updatedBy int64, now time.Time) map[string]any {
	updates := map[string]any{
		"updated_by": updatedBy,
		"updated_on": now,
	}
	if r.Value != nil {
		updates["value"] = *r.Value
	}
	if r.Comment != nil {
		updates["comment"] = *r.Comment
	}
	return updates
}
