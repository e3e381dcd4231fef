package vehicles

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shubhamkulkarni01/emstrack/internal/access"
	"github.com/shubhamkulkarni01/emstrack/internal/history"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/httpx"
	"github.com/shubhamkulkarni01/emstrack/internal/realtime"
)

// Service gates every vehicle mutation: it consults the access evaluator,
// validates field constraints, persists atomically, then hands the accepted
// change to the history recorder and the publish bridge.
//
// A denied detail read or write is reported as not-found, so callers cannot
// distinguish it from an absent resource. Creation denial is a distinct
// forbidden condition.
type Service struct {
	repo      Repository
	evaluator *access.Evaluator
	recorder  *history.Recorder
	bridge    *realtime.Bridge
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(
	repo Repository,
	evaluator *access.Evaluator,
	recorder *history.Recorder,
	bridge *realtime.Bridge,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		evaluator: evaluator,
		recorder:  recorder,
		bridge:    bridge,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns one vehicle if the principal may read it.
func (s *Service) Get(ctx context.Context, p access.Principal, id int64) (*Vehicle, error) {
	ok, err := s.evaluator.CanRead(ctx, p, access.ClassVehicle, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns the vehicles visible to the principal.
func (s *Service) List(ctx context.Context, p access.Principal) ([]Vehicle, error) {
	vis, err := s.evaluator.VisibleSet(ctx, p, access.ClassVehicle)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, vis)
}

// Create adds a new vehicle. Only superusers and staff may create.
func (s *Service) Create(ctx context.Context, p access.Principal, req CreateVehicleRequest) (*Vehicle, error) {
	if !s.evaluator.CanCreate(p) {
		return nil, fmt.Errorf("%w: vehicle creation requires dispatcher role", httpx.ErrForbidden)
	}

	capability := Capability(req.Capability)
	if req.Capability == "" {
		capability = CapabilityBasic
	}
	if !capability.Valid() {
		return nil, fmt.Errorf("%w: unknown capability %q", httpx.ErrValidation, req.Capability)
	}

	created, err := s.repo.Create(ctx, Vehicle{
		Identifier: req.Identifier,
		Status:     StatusUnknown,
		Capability: capability,
		Comment:    req.Comment,
		UpdatedBy:  p.GetID(),
		UpdatedOn:  s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.recorder.RecordVehicle(ctx, created.ID, history.Snapshot{}, created.snapshot(), p.GetID())
	s.bridge.PublishVehicle(created.ID, created)
	return created, nil
}

// Apply performs one partial update: resolve, authorize, validate, persist,
// then record history and broadcast the new state.
func (s *Service) Apply(ctx context.Context, p access.Principal, id int64, req UpdateVehicleRequest) (*Vehicle, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.evaluator.CanWrite(ctx, p, access.ClassVehicle, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httpx.ErrNotFound
	}
	if err := validateUpdate(req); err != nil {
		return nil, err
	}
	return s.applyStep(ctx, p, before, req)
}

// ApplyUpdates applies an ordered sequence of partial changes as independent
// atomic steps. Each step produces its own history record and broadcast;
// intermediate states are individually observable downstream.
func (s *Service) ApplyUpdates(ctx context.Context, p access.Principal, id int64, reqs []UpdateVehicleRequest) (*Vehicle, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.evaluator.CanWrite(ctx, p, access.ClassVehicle, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httpx.ErrNotFound
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty update sequence", httpx.ErrValidation)
	}
	for i, req := range reqs {
		if err := validateUpdate(req); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	for _, req := range reqs {
		current, err = s.applyStep(ctx, p, current, req)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// Delete removes a vehicle, tombstoning its retained topic.
func (s *Service) Delete(ctx context.Context, p access.Principal, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	ok, err := s.evaluator.CanWrite(ctx, p, access.ClassVehicle, id)
	if err != nil {
		return err
	}
	if !ok {
		return httpx.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bridge.RemoveVehicle(id)
	return nil
}

// Updates returns the paginated history trail for a vehicle the principal
// may read.
func (s *Service) Updates(ctx context.Context, p access.Principal, id int64, limit, offset int) ([]history.VehicleUpdate, int, error) {
	ok, err := s.evaluator.CanRead(ctx, p, access.ClassVehicle, id)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, httpx.ErrNotFound
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.recorder.ListByVehicle(ctx, id, limit, offset)
}

func (s *Service) applyStep(ctx context.Context, p access.Principal, before *Vehicle, req UpdateVehicleRequest) (*Vehicle, error) {
	after, err := s.repo.Update(ctx, before.ID, req.changes(p.GetID(), s.now()))
	if err != nil {
		return nil, err
	}
	s.recorder.RecordVehicle(ctx, after.ID, before.snapshot(), after.snapshot(), p.GetID())
	s.bridge.PublishVehicle(after.ID, after)
	return after, nil
}

func validateUpdate(req UpdateVehicleRequest) error {
	if req.isEmpty() {
		return fmt.Errorf("%w: no fields to update", httpx.ErrValidation)
	}
	if (req.Location == nil) != (req.LocationTimestamp == nil) {
		return fmt.Errorf("%w: location and location_timestamp must be supplied together", httpx.ErrValidation)
	}
	if req.Status != nil && !Status(*req.Status).Valid() {
		return fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
	}
	if req.Capability != nil && !Capability(*req.Capability).Valid() {
		return fmt.Errorf("%w: unknown capability %q", httpx.ErrValidation, *req.Capability)
	}
	if req.Identifier != nil && *req.Identifier == "" {
		return fmt.Errorf("%w: identifier must not be empty", httpx.ErrValidation)
	}
	return nil
}
