package realtime

import (
	"encoding/json"
	"log/slog"
)

// Publisher is the transport handoff the bridge publishes through. The
// Supervisor implements it; tests substitute a recording fake.
type Publisher interface {
	Publish(topic string, payload []byte)
	Remove(topic string)
}

// Bridge serializes resource state and broadcasts it on retained topics.
// It is invoked on every accepted mutation, independent of whether the
// change produced a history record.
type Bridge struct {
	pub    Publisher
	logger *slog.Logger
}

// NewBridge constructs a Bridge.
func NewBridge(pub Publisher, logger *slog.Logger) *Bridge {
	return &Bridge{pub: pub, logger: logger}
}

// PublishVehicle broadcasts the full current vehicle representation.
func (b *Bridge) PublishVehicle(id int64, state any) {
	b.publish(VehicleTopic(id), state)
}

// RemoveVehicle tombstones the vehicle's retained topic.
func (b *Bridge) RemoveVehicle(id int64) {
	b.pub.Remove(VehicleTopic(id))
}

// PublishFacility broadcasts the full current facility representation.
func (b *Bridge) PublishFacility(id int64, state any) {
	b.publish(FacilityTopic(id), state)
}

// RemoveFacility tombstones the facility's retained topics, including its
// equipment metadata aggregate.
func (b *Bridge) RemoveFacility(id int64) {
	b.pub.Remove(FacilityTopic(id))
	b.pub.Remove(EquipmentMetadataTopic(id))
}

// PublishEquipmentItem broadcasts one equipment item's current state.
func (b *Bridge) PublishEquipmentItem(facilityID, equipmentID int64, state any) {
	b.publish(EquipmentItemTopic(facilityID, equipmentID), state)
}

// RemoveEquipmentItem tombstones one equipment item topic.
func (b *Bridge) RemoveEquipmentItem(facilityID, equipmentID int64) {
	b.pub.Remove(EquipmentItemTopic(facilityID, equipmentID))
}

// PublishEquipmentMetadata broadcasts the derived equipment-type aggregate
// for a facility. Callers invoke this when membership changes, never on a
// pure value update of an existing item.
func (b *Bridge) PublishEquipmentMetadata(facilityID int64, equipments any) {
	b.publish(EquipmentMetadataTopic(facilityID), equipments)
}

func (b *Bridge) publish(topic string, state any) {
	payload, err := json.Marshal(state)
	if err != nil {
		b.logger.Error("serialize broadcast payload",
			slog.String("topic", topic),
			slog.Any("error", err))
		return
	}
	b.pub.Publish(topic, payload)
}
