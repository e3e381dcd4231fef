package realtime

import (
	"encoding/json"
	"log/slog"
	"testing"
)

type recordedCall struct {
	topic   string
	payload []byte
	remove  bool
}

type fakePublisher struct {
	calls []recordedCall
}

func (f *fakePublisher) Publish(topic string, payload []byte) {
	f.calls = append(f.calls, recordedCall{topic: topic, payload: payload})
}

func (f *fakePublisher) Remove(topic string) {
	f.calls = append(f.calls, recordedCall{topic: topic, remove: true})
}

func TestPublishVehicleUsesExactTopic(t *testing.T) {
	pub := &fakePublisher{}
	bridge := NewBridge(pub, slog.Default())

	bridge.PublishVehicle(3, map[string]any{"id": 3, "status": "AH"})

	if len(pub.calls) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.calls))
	}
	if pub.calls[0].topic != "vehicle/3/data" {
		t.Fatalf("unexpected topic %q", pub.calls[0].topic)
	}
	var decoded map[string]any
	if err := json.Unmarshal(pub.calls[0].payload, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded["status"] != "AH" {
		t.Fatalf("payload does not carry the new state: %v", decoded)
	}
}

func TestRemoveVehicleTombstonesItsTopic(t *testing.T) {
	pub := &fakePublisher{}
	bridge := NewBridge(pub, slog.Default())

	bridge.RemoveVehicle(7)

	if len(pub.calls) != 1 || !pub.calls[0].remove {
		t.Fatalf("expected one tombstone, got %v", pub.calls)
	}
	if pub.calls[0].topic != "vehicle/7/data" {
		t.Fatalf("unexpected topic %q", pub.calls[0].topic)
	}
}

func TestRemoveFacilityAlsoTombstonesMetadata(t *testing.T) {
	pub := &fakePublisher{}
	bridge := NewBridge(pub, slog.Default())

	bridge.RemoveFacility(5)

	if len(pub.calls) != 2 {
		t.Fatalf("expected two tombstones, got %d", len(pub.calls))
	}
	if pub.calls[0].topic != "facility/5/data" || pub.calls[1].topic != "facility/5/equipment/metadata" {
		t.Fatalf("unexpected topics %v", pub.calls)
	}
}

func TestEquipmentTopics(t *testing.T) {
	pub := &fakePublisher{}
	bridge := NewBridge(pub, slog.Default())

	bridge.PublishEquipmentItem(5, 11, map[string]any{"value": "true"})
	bridge.RemoveEquipmentItem(5, 11)
	bridge.PublishEquipmentMetadata(5, []map[string]any{{"name": "x-ray"}})

	want := []string{
		"facility/5/equipment/11/data",
		"facility/5/equipment/11/data",
		"facility/5/equipment/metadata",
	}
	if len(pub.calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(pub.calls))
	}
	for i, topic := range want {
		if pub.calls[i].topic != topic {
			t.Fatalf("call %d: expected topic %q got %q", i, topic, pub.calls[i].topic)
		}
	}
	if !pub.calls[1].remove {
		t.Fatal("expected the item removal to be a tombstone")
	}
}

func TestUnserializablePayloadIsSkipped(t *testing.T) {
	pub := &fakePublisher{}
	bridge := NewBridge(pub, slog.Default())

	bridge.PublishVehicle(1, make(chan int))

	if len(pub.calls) != 0 {
		t.Fatal("unserializable payload must not reach the transport")
	}
}
