package facilities

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhamkulkarni01/emstrack/internal/access"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/httpx"
	"github.com/shubhamkulkarni01/emstrack/internal/realtime"
	"github.com/shubhamkulkarni01/emstrack/internal/shared"
)

// ----------------------------------------------------------------------------
// mocks
// ----------------------------------------------------------------------------

type itemKey struct {
	facilityID  int64
	equipmentID int64
}

type mockRepo struct {
	facilities map[int64]*Facility
	types      map[int64]EquipmentType
	items      map[itemKey]*EquipmentItem
	nextID     int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		facilities: make(map[int64]*Facility),
		types:      make(map[int64]EquipmentType),
		items:      make(map[itemKey]*EquipmentItem),
	}
}

func (m *mockRepo) addFacility(f Facility) {
	m.facilities[f.ID] = &f
	if f.ID > m.nextID {
		m.nextID = f.ID
	}
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Facility, error) {
	f, ok := m.facilities[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (m *mockRepo) List(ctx context.Context, vis access.Visibility) ([]Facility, error) {
	result := []Facility{}
	for _, f := range m.facilities {
		if vis.Contains(f.ID) {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockRepo) ListAll(ctx context.Context) ([]Facility, error) {
	return m.List(ctx, access.Visibility{All: true})
}

func (m *mockRepo) Create(ctx context.Context, f Facility) (*Facility, error) {
	for _, existing := range m.facilities {
		if existing.Name == f.Name {
			return nil, httpx.ErrDuplicate
		}
	}
	m.nextID++
	f.ID = m.nextID
	m.facilities[f.ID] = &f
	copied := f
	return &copied, nil
}

func (m *mockRepo) Update(ctx context.Context, id int64, updates map[string]any) (*Facility, error) {
	f, ok := m.facilities[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	if value, ok := updates["name"]; ok {
		f.Name = value.(string)
	}
	latitude, hasLat := updates["latitude"]
	longitude, hasLon := updates["longitude"]
	if hasLat && hasLon {
		f.Location = &shared.Point{Latitude: latitude.(float64), Longitude: longitude.(float64)}
	}
	if value, ok := updates["comment"]; ok {
		f.Comment = value.(string)
	}
	if value, ok := updates["updated_by"]; ok {
		f.UpdatedBy = value.(int64)
	}
	if value, ok := updates["updated_on"]; ok {
		f.UpdatedOn = value.(time.Time)
	}
	copied := *f
	return &copied, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.facilities[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.facilities, id)
	return nil
}

func (m *mockRepo) GetEquipmentType(ctx context.Context, id int64) (*EquipmentType, error) {
	et, ok := m.types[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &et, nil
}

func (m *mockRepo) ListEquipment(ctx context.Context, facilityID int64) ([]EquipmentItem, error) {
	result := []EquipmentItem{}
	for key, item := range m.items {
		if key.facilityID == facilityID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (m *mockRepo) GetEquipmentItem(ctx context.Context, facilityID, equipmentID int64) (*EquipmentItem, error) {
	item, ok := m.items[itemKey{facilityID, equipmentID}]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *mockRepo) AddEquipment(ctx context.Context, item EquipmentItem) (*EquipmentItem, error) {
	key := itemKey{item.FacilityID, item.EquipmentID}
	if _, ok := m.items[key]; ok {
		return nil, httpx.ErrDuplicate
	}
	item.Equipment = m.types[item.EquipmentID]
	m.items[key] = &item
	copied := item
	return &copied, nil
}

func (m *mockRepo) UpdateEquipment(ctx context.Context, facilityID, equipmentID int64, updates map[string]any) (*EquipmentItem, error) {
	item, ok := m.items[itemKey{facilityID, equipmentID}]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	if value, ok := updates["value"]; ok {
		item.Value = value.(string)
	}
	if value, ok := updates["comment"]; ok {
		item.Comment = value.(string)
	}
	if value, ok := updates["updated_by"]; ok {
		item.UpdatedBy = value.(int64)
	}
	if value, ok := updates["updated_on"]; ok {
		item.UpdatedOn = value.(time.Time)
	}
	copied := *item
	return &copied, nil
}

func (m *mockRepo) RemoveEquipment(ctx context.Context, facilityID, equipmentID int64) error {
	key := itemKey{facilityID, equipmentID}
	if _, ok := m.items[key]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *mockRepo) DistinctEquipment(ctx context.Context, facilityID int64) ([]EquipmentType, error) {
	types := []EquipmentType{}
	for key, item := range m.items {
		if key.facilityID == facilityID {
			types = append(types, item.Equipment)
		}
	}
	return types, nil
}

type mockGrants struct {
	grants []access.Grant
}

func (m *mockGrants) Get(ctx context.Context, userID int64, class access.ResourceClass, resourceID int64) (*access.Grant, error) {
	for i := range m.grants {
		g := m.grants[i]
		if g.UserID == userID && g.Class == class && g.ResourceID == resourceID {
			return &g, nil
		}
	}
	return nil, access.ErrNoGrant
}

func (m *mockGrants) ListReadable(ctx context.Context, userID int64, class access.ResourceClass) ([]int64, error) {
	ids := []int64{}
	for _, g := range m.grants {
		if g.UserID == userID && g.Class == class && g.CanRead {
			ids = append(ids, g.ResourceID)
		}
	}
	return ids, nil
}

type publishedMessage struct {
	topic   string
	payload []byte
	remove  bool
}

type fakePublisher struct {
	messages []publishedMessage
}

func (f *fakePublisher) Publish(topic string, payload []byte) {
	f.messages = append(f.messages, publishedMessage{topic: topic, payload: payload})
}

func (f *fakePublisher) Remove(topic string) {
	f.messages = append(f.messages, publishedMessage{topic: topic, remove: true})
}

func (f *fakePublisher) topics() []string {
	result := make([]string, len(f.messages))
	for i, m := range f.messages {
		result[i] = m.topic
	}
	return result
}

type testPrincipal struct {
	id        int64
	superuser bool
	staff     bool
}

func (p testPrincipal) GetID() int64      { return p.id }
func (p testPrincipal) IsSuperUser() bool { return p.superuser }
func (p testPrincipal) IsStaff() bool     { return p.staff }

type fixture struct {
	service   *Service
	repo      *mockRepo
	published *fakePublisher
}

func newFixture(t *testing.T, grants []access.Grant) *fixture {
	t.Helper()
	repo := newMockRepo()
	pub := &fakePublisher{}
	logger := slog.Default()
	service := NewService(repo, access.NewEvaluator(&mockGrants{grants: grants}), realtime.NewBridge(pub, logger), logger)
	return &fixture{service: service, repo: repo, published: pub}
}

func strPtr(s string) *string { return &s }

var writer = testPrincipal{id: 2}

func writerGrant(facilityID int64) access.Grant {
	return access.Grant{UserID: 2, Class: access.ClassFacility, ResourceID: facilityID, CanRead: true, CanWrite: true}
}

// ----------------------------------------------------------------------------
// tests
// ----------------------------------------------------------------------------

func TestFacilityUpdateBroadcastsState(t *testing.T) {
	f := newFixture(t, []access.Grant{writerGrant(7)})
	f.repo.addFacility(Facility{ID: 7, Name: "General Hospital"})

	updated, err := f.service.Apply(context.Background(), writer, 7, UpdateFacilityRequest{Comment: strPtr("renovating wing B")})
	require.NoError(t, err)
	assert.Equal(t, "renovating wing B", updated.Comment)
	assert.Equal(t, int64(2), updated.UpdatedBy)

	require.Len(t, f.published.messages, 1)
	assert.Equal(t, "facility/7/data", f.published.messages[0].topic)
}

func TestFacilityDeniedWriteReadsAsNotFound(t *testing.T) {
	f := newFixture(t, []access.Grant{
		{UserID: 2, Class: access.ClassFacility, ResourceID: 7, CanRead: true},
	})
	f.repo.addFacility(Facility{ID: 7, Name: "General Hospital"})

	_, err := f.service.Apply(context.Background(), writer, 7, UpdateFacilityRequest{Comment: strPtr("x")})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Empty(t, f.published.messages)
}

func TestAddEquipmentPublishesItemThenAggregate(t *testing.T) {
	f := newFixture(t, []access.Grant{writerGrant(7)})
	f.repo.addFacility(Facility{ID: 7, Name: "General Hospital"})
	f.repo.types[11] = EquipmentType{ID: 11, Name: "x-ray", Type: EquipmentBoolean, Toggleable: true}

	item, err := f.service.AddEquipment(context.Background(), writer, 7, AddEquipmentRequest{
		EquipmentID: 11, Value: "True",
	})
	require.NoError(t, err)
	assert.Equal(t, "x-ray", item.Equipment.Name)

	require.Equal(t, []string{
		"facility/7/equipment/11/data",
		"facility/7/equipment/metadata",
	}, f.published.topics())
	assert.Contains(t, string(f.published.messages[1].payload), `"name":"x-ray"`)
}

func TestValueUpdateSkipsAggregateRepublish(t *testing.T) {
	f := newFixture(t, []access.Grant{writerGrant(7)})
	f.repo.addFacility(Facility{ID: 7, Name: "General Hospital"})
	f.repo.types[11] = EquipmentType{ID: 11, Name: "x-ray", Type: EquipmentBoolean, Toggleable: true}
	_, err := f.service.AddEquipment(context.Background(), writer, 7, AddEquipmentRequest{EquipmentID: 11, Value: "True"})
	require.NoError(t, err)
	f.published.messages = nil

	item, err := f.service.UpdateEquipment(context.Background(), writer, 7, 11, UpdateEquipmentRequest{Value: strPtr("False")})
	require.NoError(t, err)
	assert.Equal(t, "False", item.Value)

	// the item topic alone, no metadata recomputation
	require.Equal(t, []string{"facility/7/equipment/11/data"}, f.published.topics())
}

func TestRemoveEquipmentTombstonesThenRepublishesAggregate(t *testing.T) {
	f := newFixture(t, []access.Grant{writerGrant(7)})
	f.repo.addFacility(Facility{ID: 7, Name: "General Hospital"})
	f.repo.types[11] = EquipmentType{ID: 11, Name: "x-ray", Type: EquipmentBoolean}
	f.repo.types[12] = EquipmentType{ID: 12, Name: "beds", Type: EquipmentInteger}
	_, err := f.service.AddEquipment(context.Background(), writer, 7, AddEquipmentRequest{EquipmentID: 11, Value: "True"})
	require.NoError(t, err)
	_, err = f.service.AddEquipment(context.Background(), writer, 7, AddEquipmentRequest{EquipmentID: 12, Value: "40"})
	require.NoError(t, err)
	f.published.messages = nil

	err = f.service.RemoveEquipment(context.Background(), writer, 7, 11)
	require.NoError(t, err)

	require.Equal(t, []string{
		"facility/7/equipment/11/data",
		"facility/7/equipment/metadata",
	}, f.published.topics())
	assert.True(t, f.published.messages[0].remove)
	// the aggregate now holds only the remaining equipment type
	assert.Contains(t, string(f.published.messages[1].payload), `"name":"beds"`)
	assert.NotContains(t, string(f.published.messages[1].payload), `"name":"x-ray"`)
}

func TestEquipmentValueValidatedAgainstType(t *testing.T) {
	f := newFixture(t, []access.Grant{writerGrant(7)})
	f.repo.addFacility(Facility{ID: 7, Name: "General Hospital"})
	f.repo.types[11] = EquipmentType{ID: 11, Name: "x-ray", Type: EquipmentBoolean}
	f.repo.types[12] = EquipmentType{ID: 12, Name: "beds", Type: EquipmentInteger}

	_, err := f.service.AddEquipment(context.Background(), writer, 7, AddEquipmentRequest{EquipmentID: 11, Value: "maybe"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = f.service.AddEquipment(context.Background(), writer, 7, AddEquipmentRequest{EquipmentID: 12, Value: "many"})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Empty(t, f.published.messages)
}

func TestFacilityDeleteTombstonesDataAndMetadata(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.addFacility(Facility{ID: 7, Name: "General Hospital"})

	err := f.service.Delete(context.Background(), testPrincipal{id: 1, superuser: true}, 7)
	require.NoError(t, err)

	require.Equal(t, []string{
		"facility/7/data",
		"facility/7/equipment/metadata",
	}, f.published.topics())
	assert.True(t, f.published.messages[0].remove)
	assert.True(t, f.published.messages[1].remove)
}

func TestFacilityCreateRequiresDispatcherRole(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Create(context.Background(), testPrincipal{id: 2}, CreateFacilityRequest{Name: "Clinic"})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	created, err := f.service.Create(context.Background(), testPrincipal{id: 5, staff: true}, CreateFacilityRequest{Name: "Clinic"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.UpdatedBy)
	require.Len(t, f.published.messages, 1)
	assert.Equal(t, "facility/1/data", f.published.messages[0].topic)
}
