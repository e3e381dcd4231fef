package facilities

import (
	"time"

	"github.com/shubhamkulkarni01/emstrack/internal/shared"
)

// EquipmentValueType tags how an equipment item's value is interpreted.
type EquipmentValueType string

const (
	EquipmentBoolean EquipmentValueType = "B"
	EquipmentInteger EquipmentValueType = "I"
	EquipmentString  EquipmentValueType = "S"
)

func (t EquipmentValueType) Valid() bool {
	switch t {
	case EquipmentBoolean, EquipmentInteger, EquipmentString:
		return true
	}
	return false
}

// Facility is a partner site whose state is grant-scoped and broadcast on a
// retained topic, the same lifecycle a vehicle follows.
type Facility struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Location  *shared.Point `json:"location"`
	Comment   string        `json:"comment"`
	UpdatedBy int64         `json:"updated_by"`
	UpdatedOn time.Time     `json:"updated_on"`
}

// EquipmentType is reference data describing one kind of equipment a
// facility may hold.
type EquipmentType struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Type       EquipmentValueType `json:"type"`
	Toggleable bool               `json:"toggleable"`
}

// EquipmentItem is one facility's holding of an equipment type. Its value is
// stored as text and interpreted per the type's value tag.
type EquipmentItem struct {
	FacilityID  int64         `json:"facility_id"`
	EquipmentID int64         `json:"equipment_id"`
	Equipment   EquipmentType `json:"equipment"`
	Value       string        `json:"value"`
	Comment     string        `json:"comment"`
	UpdatedBy   int64         `json:"updated_by"`
	UpdatedOn   time.Time     `json:"updated_on"`
}
