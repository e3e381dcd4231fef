// Package access decides, for every principal and protected resource,
// whether a read or write may proceed.
package access

// ResourceClass identifies a kind of grant-scoped resource.
type ResourceClass string

const (
	ClassVehicle  ResourceClass = "vehicle"
	ClassFacility ResourceClass = "facility"
)

// Principal describes the authenticated actor.
type Principal interface {
	GetID() int64
	IsSuperUser() bool
	IsStaff() bool
}

// Grant is the per-user access record over one resource. At most one grant
// exists per (user, resource); absence means no access for non-superusers.
// CanRead and CanWrite are independent flags.
type Grant struct {
	UserID     int64         `json:"user_id"`
	Class      ResourceClass `json:"resource_class"`
	ResourceID int64         `json:"resource_id"`
	CanRead    bool          `json:"can_read"`
	CanWrite   bool          `json:"can_write"`
}

// Visibility is the predicate returned for list queries: either everything,
// or an explicit identifier set.
type Visibility struct {
	All bool
	IDs []int64
}

// Contains reports whether the given resource is in the visible set.
func (v Visibility) Contains(id int64) bool {
	if v.All {
		return true
	}
	for _, visible := range v.IDs {
		if visible == id {
			return true
		}
	}
	return false
}
