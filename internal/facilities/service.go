package facilities

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shubhamkulkarni01/emstrack/internal/access"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/httpx"
	"github.com/shubhamkulkarni01/emstrack/internal/realtime"
)

// Service gates facility and equipment mutations behind the access
// evaluator and broadcasts accepted changes on retained topics.
//
// The equipment-type aggregate is recomputed and republished only when
// membership changes (an item is added or removed), never on a pure value
// update of an existing item.
type Service struct {
	repo      Repository
	evaluator *access.Evaluator
	bridge    *realtime.Bridge
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, evaluator *access.Evaluator, bridge *realtime.Bridge, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		evaluator: evaluator,
		bridge:    bridge,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns one facility if the principal may read it.
func (s *Service) Get(ctx context.Context, p access.Principal, id int64) (*Facility, error) {
	ok, err := s.evaluator.CanRead(ctx, p, access.ClassFacility, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns the facilities visible to the principal.
func (s *Service) List(ctx context.Context, p access.Principal) ([]Facility, error) {
	vis, err := s.evaluator.VisibleSet(ctx, p, access.ClassFacility)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, vis)
}

// Create adds a new facility. Only superusers and staff may create.
func (s *Service) Create(ctx context.Context, p access.Principal, req CreateFacilityRequest) (*Facility, error) {
	if !s.evaluator.CanCreate(p) {
		return nil, fmt.Errorf("%w: facility creation requires dispatcher role", httpx.ErrForbidden)
	}

	created, err := s.repo.Create(ctx, Facility{
		Name:      req.Name,
		Location:  req.Location,
		Comment:   req.Comment,
		UpdatedBy: p.GetID(),
		UpdatedOn: s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.bridge.PublishFacility(created.ID, created)
	return created, nil
}

// Apply performs one partial update and broadcasts the new state.
func (s *Service) Apply(ctx context.Context, p access.Principal, id int64, req UpdateFacilityRequest) (*Facility, error) {
	if err := s.resolveWritable(ctx, p, id); err != nil {
		return nil, err
	}
	if req.isEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", httpx.ErrValidation)
	}
	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", httpx.ErrValidation)
	}

	after, err := s.repo.Update(ctx, id, req.changes(p.GetID(), s.now()))
	if err != nil {
		return nil, err
	}
	s.bridge.PublishFacility(after.ID, after)
	return after, nil
}

// Delete removes a facility, tombstoning its retained topics including the
// equipment metadata aggregate.
func (s *Service) Delete(ctx context.Context, p access.Principal, id int64) error {
	if err := s.resolveWritable(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bridge.RemoveFacility(id)
	return nil
}

// ListEquipment returns the equipment items held by a readable facility.
func (s *Service) ListEquipment(ctx context.Context, p access.Principal, facilityID int64) ([]EquipmentItem, error) {
	ok, err := s.evaluator.CanRead(ctx, p, access.ClassFacility, facilityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httpx.ErrNotFound
	}
	if _, err := s.repo.Get(ctx, facilityID); err != nil {
		return nil, err
	}
	return s.repo.ListEquipment(ctx, facilityID)
}

// EquipmentMetadata returns the derived equipment-type aggregate for a
// readable facility.
func (s *Service) EquipmentMetadata(ctx context.Context, p access.Principal, facilityID int64) ([]EquipmentType, error) {
	ok, err := s.evaluator.CanRead(ctx, p, access.ClassFacility, facilityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httpx.ErrNotFound
	}
	if _, err := s.repo.Get(ctx, facilityID); err != nil {
		return nil, err
	}
	return s.repo.DistinctEquipment(ctx, facilityID)
}

// AddEquipment creates a new equipment membership, broadcasts the item, and
// republishes the recomputed equipment-type aggregate.
func (s *Service) AddEquipment(ctx context.Context, p access.Principal, facilityID int64, req AddEquipmentRequest) (*EquipmentItem, error) {
	if err := s.resolveWritable(ctx, p, facilityID); err != nil {
		return nil, err
	}
	etype, err := s.repo.GetEquipmentType(ctx, req.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("equipment type %d: %w", req.EquipmentID, err)
	}
	if err := validateEquipmentValue(etype.Type, req.Value); err != nil {
		return nil, err
	}

	item, err := s.repo.AddEquipment(ctx, EquipmentItem{
		FacilityID:  facilityID,
		EquipmentID: req.EquipmentID,
		Value:       req.Value,
		Comment:     req.Comment,
		UpdatedBy:   p.GetID(),
		UpdatedOn:   s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.bridge.PublishEquipmentItem(facilityID, item.EquipmentID, item)
	s.publishMetadata(ctx, facilityID)
	return item, nil
}

// UpdateEquipment patches an existing item's value or comment. Membership
// is unchanged, so the aggregate is not recomputed.
func (s *Service) UpdateEquipment(ctx context.Context, p access.Principal, facilityID, equipmentID int64, req UpdateEquipmentRequest) (*EquipmentItem, error) {
	if err := s.resolveWritable(ctx, p, facilityID); err != nil {
		return nil, err
	}
	if req.isEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", httpx.ErrValidation)
	}
	if req.Value != nil {
		existing, err := s.repo.GetEquipmentItem(ctx, facilityID, equipmentID)
		if err != nil {
			return nil, err
		}
		if err := validateEquipmentValue(existing.Equipment.Type, *req.Value); err != nil {
			return nil, err
		}
	}

	item, err := s.repo.UpdateEquipment(ctx, facilityID, equipmentID, req.changes(p.GetID(), s.now()))
	if err != nil {
		return nil, err
	}
	s.bridge.PublishEquipmentItem(facilityID, item.EquipmentID, item)
	return item, nil
}

// RemoveEquipment destroys a membership: the item topic is tombstoned and
// the aggregate is recomputed from the remaining items in the same
// operation.
func (s *Service) RemoveEquipment(ctx context.Context, p access.Principal, facilityID, equipmentID int64) error {
	if err := s.resolveWritable(ctx, p, facilityID); err != nil {
		return err
	}
	if err := s.repo.RemoveEquipment(ctx, facilityID, equipmentID); err != nil {
		return err
	}
	s.bridge.RemoveEquipmentItem(facilityID, equipmentID)
	s.publishMetadata(ctx, facilityID)
	return nil
}

// resolveWritable checks existence and write permission, collapsing both
// failures into not-found.
func (s *Service) resolveWritable(ctx context.Context, p access.Principal, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	ok, err := s.evaluator.CanWrite(ctx, p, access.ClassFacility, id)
	if err != nil {
		return err
	}
	if !ok {
		return httpx.ErrNotFound
	}
	return nil
}

func (s *Service) publishMetadata(ctx context.Context, facilityID int64) {
	types, err := s.repo.DistinctEquipment(ctx, facilityID)
	if err != nil {
		s.logger.Error("recompute equipment metadata",
			slog.Int64("facility_id", facilityID),
			slog.Any("error", err))
		return
	}
	s.bridge.PublishEquipmentMetadata(facilityID, types)
}

func validateEquipmentValue(t EquipmentValueType, value string) error {
	switch t {
	case EquipmentBoolean:
		if value != "True" && value != "False" {
			return fmt.Errorf("%w: boolean equipment value must be True or False", httpx.ErrValidation)
		}
	case EquipmentInteger:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%w: integer equipment value %q", httpx.ErrValidation, value)
		}
	}
	return nil
}
