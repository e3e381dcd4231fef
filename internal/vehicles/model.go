// Package vehicles tracks the fleet's emergency vehicles.
package vehicles

import (
	"time"

	"github.com/shubhamkulkarni01/emstrack/internal/history"
	"github.com/shubhamkulkarni01/emstrack/internal/shared"
)

// Status is the operational state of a vehicle.
type Status string

const (
	StatusUnknown       Status = "UK"
	StatusAvailable     Status = "AV"
	StatusOutOfService  Status = "OS"
	StatusPatientBound  Status = "PB"
	StatusAtPatient     Status = "AP"
	StatusHospitalBound Status = "HB"
	StatusAtHospital    Status = "AH"
)

// Valid reports whether s is a known status code.
func (s Status) Valid() bool {
	switch s {
	case StatusUnknown, StatusAvailable, StatusOutOfService,
		StatusPatientBound, StatusAtPatient, StatusHospitalBound, StatusAtHospital:
		return true
	}
	return false
}

// Capability is the service level a vehicle provides.
type Capability string

const (
	CapabilityBasic    Capability = "B"
	CapabilityAdvanced Capability = "A"
	CapabilityRescue   Capability = "R"
)

// Valid reports whether c is a known capability code.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityBasic, CapabilityAdvanced, CapabilityRescue:
		return true
	}
	return false
}

// Vehicle is a tracked emergency vehicle. The JSON tags are the canonical
// wire representation, shared by the HTTP API and the broadcast payloads.
type Vehicle struct {
	ID                int64         `json:"id"`
	Identifier        string        `json:"identifier"`
	Status            Status        `json:"status"`
	Capability        Capability    `json:"capability"`
	Orientation       float64       `json:"orientation"`
	Location          *shared.Point `json:"location"`
	LocationTimestamp *time.Time    `json:"location_timestamp"`
	Comment           string        `json:"comment"`
	UpdatedBy         int64         `json:"updated_by"`
	UpdatedOn         time.Time     `json:"updated_on"`
}

func (v *Vehicle) snapshot() history.Snapshot {
	if v == nil {
		return history.Snapshot{}
	}
	return history.Snapshot{
		Status:            string(v.Status),
		Orientation:       v.Orientation,
		Location:          v.Location,
		LocationTimestamp: v.LocationTimestamp,
		Comment:           v.Comment,
	}
}
