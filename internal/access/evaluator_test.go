package access

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type mockStore struct {
	grants map[string]*Grant
	err    error
}

func key(userID int64, class ResourceClass, resourceID int64) string {
	return fmt.Sprintf("%s:%d:%d", class, userID, resourceID)
}

func newMockStore(grants ...Grant) *mockStore {
	m := &mockStore{grants: make(map[string]*Grant)}
	for i := range grants {
		g := grants[i]
		m.grants[key(g.UserID, g.Class, g.ResourceID)] = &g
	}
	return m
}

func (m *mockStore) Get(ctx context.Context, userID int64, class ResourceClass, resourceID int64) (*Grant, error) {
	if m.err != nil {
		return nil, m.err
	}
	g, ok := m.grants[key(userID, class, resourceID)]
	if !ok {
		return nil, ErrNoGrant
	}
	return g, nil
}

func (m *mockStore) ListReadable(ctx context.Context, userID int64, class ResourceClass) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := []int64{}
	for _, g := range m.grants {
		if g.UserID == userID && g.Class == class && g.CanRead {
			ids = append(ids, g.ResourceID)
		}
	}
	return ids, nil
}

type testPrincipal struct {
	id        int64
	superuser bool
	staff     bool
}

func (p testPrincipal) GetID() int64      { return p.id }
func (p testPrincipal) IsSuperUser() bool { return p.superuser }
func (p testPrincipal) IsStaff() bool     { return p.staff }

func TestNoGrantMeansNoAccess(t *testing.T) {
	e := NewEvaluator(newMockStore())
	p := testPrincipal{id: 7}

	ok, err := e.CanRead(context.Background(), p, ClassVehicle, 1)
	if err != nil {
		t.Fatalf("CanRead returned error: %v", err)
	}
	if ok {
		t.Fatal("expected read denied without a grant")
	}

	ok, err = e.CanWrite(context.Background(), p, ClassVehicle, 1)
	if err != nil {
		t.Fatalf("CanWrite returned error: %v", err)
	}
	if ok {
		t.Fatal("expected write denied without a grant")
	}
}

func TestReadOnlyGrant(t *testing.T) {
	e := NewEvaluator(newMockStore(Grant{UserID: 2, Class: ClassVehicle, ResourceID: 3, CanRead: true}))
	p := testPrincipal{id: 2}

	ok, _ := e.CanRead(context.Background(), p, ClassVehicle, 3)
	if !ok {
		t.Fatal("expected read allowed")
	}
	ok, _ = e.CanWrite(context.Background(), p, ClassVehicle, 3)
	if ok {
		t.Fatal("expected write denied on read-only grant")
	}
}

func TestWriteOnlyGrantIsValid(t *testing.T) {
	e := NewEvaluator(newMockStore(Grant{UserID: 2, Class: ClassFacility, ResourceID: 9, CanWrite: true}))
	p := testPrincipal{id: 2}

	ok, _ := e.CanWrite(context.Background(), p, ClassFacility, 9)
	if !ok {
		t.Fatal("expected write allowed")
	}
	ok, _ = e.CanRead(context.Background(), p, ClassFacility, 9)
	if ok {
		t.Fatal("expected read denied on write-only grant")
	}
}

func TestSuperuserBypassesGrants(t *testing.T) {
	e := NewEvaluator(newMockStore())
	p := testPrincipal{id: 1, superuser: true}

	if ok, _ := e.CanRead(context.Background(), p, ClassVehicle, 42); !ok {
		t.Fatal("expected superuser read allowed")
	}
	if ok, _ := e.CanWrite(context.Background(), p, ClassVehicle, 42); !ok {
		t.Fatal("expected superuser write allowed")
	}
	vis, err := e.VisibleSet(context.Background(), p, ClassVehicle)
	if err != nil {
		t.Fatalf("VisibleSet returned error: %v", err)
	}
	if !vis.All {
		t.Fatal("expected superuser to see everything")
	}
}

func TestCanCreateRequiresStaffOrSuperuser(t *testing.T) {
	e := NewEvaluator(newMockStore(Grant{UserID: 4, Class: ClassVehicle, ResourceID: 1, CanRead: true, CanWrite: true}))

	if e.CanCreate(testPrincipal{id: 4}) {
		t.Fatal("resource-scoped grants must not allow creation")
	}
	if !e.CanCreate(testPrincipal{id: 5, staff: true}) {
		t.Fatal("expected staff create allowed")
	}
	if !e.CanCreate(testPrincipal{id: 6, superuser: true}) {
		t.Fatal("expected superuser create allowed")
	}
}

func TestVisibleSetListsReadableOnly(t *testing.T) {
	e := NewEvaluator(newMockStore(
		Grant{UserID: 2, Class: ClassVehicle, ResourceID: 3, CanRead: true, CanWrite: true},
		Grant{UserID: 2, Class: ClassVehicle, ResourceID: 1, CanWrite: true},
		Grant{UserID: 8, Class: ClassVehicle, ResourceID: 5, CanRead: true},
	))
	p := testPrincipal{id: 2}

	vis, err := e.VisibleSet(context.Background(), p, ClassVehicle)
	if err != nil {
		t.Fatalf("VisibleSet returned error: %v", err)
	}
	if vis.All {
		t.Fatal("unexpected All for ordinary user")
	}
	if len(vis.IDs) != 1 || vis.IDs[0] != 3 {
		t.Fatalf("expected [3], got %v", vis.IDs)
	}
	if !vis.Contains(3) || vis.Contains(1) || vis.Contains(5) {
		t.Fatal("Contains does not match the readable set")
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("boom")
	e := NewEvaluator(store)
	p := testPrincipal{id: 2}

	if _, err := e.CanRead(context.Background(), p, ClassVehicle, 1); err == nil {
		t.Fatal("expected store error to propagate")
	}
	if _, err := e.VisibleSet(context.Background(), p, ClassVehicle); err == nil {
		t.Fatal("expected store error to propagate")
	}
}
