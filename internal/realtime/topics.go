package realtime

import (
	"fmt"
	"strings"
)

// Topic naming is part of the wire contract with subscribers and must stay
// bit-exact.

// VehicleTopic is the retained state topic for one vehicle.
func VehicleTopic(id int64) string {
	return fmt.Sprintf("vehicle/%d/data", id)
}

// FacilityTopic is the retained state topic for one facility.
func FacilityTopic(id int64) string {
	return fmt.Sprintf("facility/%d/data", id)
}

// EquipmentMetadataTopic carries the derived equipment-type aggregate of a
// facility.
func EquipmentMetadataTopic(facilityID int64) string {
	return fmt.Sprintf("facility/%d/equipment/metadata", facilityID)
}

// EquipmentItemTopic is the retained state topic for one equipment item.
func EquipmentItemTopic(facilityID, equipmentID int64) string {
	return fmt.Sprintf("facility/%d/equipment/%d/data", facilityID, equipmentID)
}

// topicClass returns the leading resource-class segment, used as a metric
// label.
func topicClass(topic string) string {
	if i := strings.IndexByte(topic, '/'); i > 0 {
		return topic[:i]
	}
	return topic
}
