package access

import (
	"context"
	"errors"
	"fmt"
)

// Evaluator is the single authorization surface. The superuser short-circuit
// lives here and nowhere else.
type Evaluator struct {
	store GrantStore
}

// NewEvaluator constructs an Evaluator over the given grant store.
func NewEvaluator(store GrantStore) *Evaluator {
	return &Evaluator{store: store}
}

// CanRead reports whether the principal may read the resource. No grant
// means no access.
func (e *Evaluator) CanRead(ctx context.Context, p Principal, class ResourceClass, resourceID int64) (bool, error) {
	if p == nil {
		return false, nil
	}
	if p.IsSuperUser() {
		return true, nil
	}
	grant, err := e.store.Get(ctx, p.GetID(), class, resourceID)
	if err != nil {
		if errors.Is(err, ErrNoGrant) {
			return false, nil
		}
		return false, fmt.Errorf("access: lookup grant: %w", err)
	}
	return grant.CanRead, nil
}

// CanWrite reports whether the principal may mutate the resource.
func (e *Evaluator) CanWrite(ctx context.Context, p Principal, class ResourceClass, resourceID int64) (bool, error) {
	if p == nil {
		return false, nil
	}
	if p.IsSuperUser() {
		return true, nil
	}
	grant, err := e.store.Get(ctx, p.GetID(), class, resourceID)
	if err != nil {
		if errors.Is(err, ErrNoGrant) {
			return false, nil
		}
		return false, fmt.Errorf("access: lookup grant: %w", err)
	}
	return grant.CanWrite, nil
}

// CanCreate reports whether the principal may create new resources of a
// class. This is independent of per-resource grants: only superusers and
// staff may create top-level resources.
func (e *Evaluator) CanCreate(p Principal) bool {
	if p == nil {
		return false
	}
	return p.IsSuperUser() || p.IsStaff()
}

// VisibleSet returns the listing predicate for the principal: everything for
// superusers, otherwise the identifiers the principal holds a readable grant
// for. An empty set is not an error.
func (e *Evaluator) VisibleSet(ctx context.Context, p Principal, class ResourceClass) (Visibility, error) {
	if p == nil {
		return Visibility{IDs: []int64{}}, nil
	}
	if p.IsSuperUser() {
		return Visibility{All: true}, nil
	}
	ids, err := e.store.ListReadable(ctx, p.GetID(), class)
	if err != nil {
		return Visibility{}, fmt.Errorf("access: list readable: %w", err)
	}
	return Visibility{IDs: ids}, nil
}
