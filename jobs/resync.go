package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/shubhamkulkarni01/emstrack/internal/facilities"
	jobmetrics "github.com/shubhamkulkarni01/emstrack/internal/jobs"
	"github.com/shubhamkulkarni01/emstrack/internal/realtime"
	"github.com/shubhamkulkarni01/emstrack/internal/vehicles"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ResyncJob walks the authoritative store and republishes every retained
// topic: vehicle state, facility state, equipment items, and the equipment
// metadata aggregates.
type ResyncJob struct {
	Vehicles   vehicles.Repository
	Facilities facilities.Repository
	Bridge     *realtime.Bridge
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewResyncJob wires dependencies for the resync handler.
func NewResyncJob(vehicleRepo vehicles.Repository, facilityRepo facilities.Repository, bridge *realtime.Bridge, logger *slog.Logger) *ResyncJob {
	return &ResyncJob{
		Vehicles:   vehicleRepo,
		Facilities: facilityRepo,
		Bridge:     bridge,
		Logger:     logger,
	}
}

// Handle processes realtime resync tasks.
func (j *ResyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Bridge == nil {
		return errors.New("realtime resync: handler not configured")
	}
	var payload ResyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	started := time.Now()
	logger.Info("starting realtime resync", slog.String("class", payload.Class))

	tracker := j.metrics().Track(TaskRealtimeResync)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if payload.Class == "" || payload.Class == "vehicle" {
		if err := j.resyncVehicles(ctx); err != nil {
			resultErr = err
			logger.Error("resync vehicles", slog.Any("error", err))
			return resultErr
		}
	}
	if payload.Class == "" || payload.Class == "facility" {
		if err := j.resyncFacilities(ctx); err != nil {
			resultErr = err
			logger.Error("resync facilities", slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed realtime resync", slog.Duration("duration", time.Since(started)))
	return resultErr
}

func (j *ResyncJob) resyncVehicles(ctx context.Context) error {
	if j.Vehicles == nil {
		return errors.New("realtime resync: vehicle repository not configured")
	}
	all, err := j.Vehicles.ListAll(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		j.Bridge.PublishVehicle(all[i].ID, &all[i])
	}
	j.metrics().AddRepublished("vehicle", len(all))
	return nil
}

func (j *ResyncJob) resyncFacilities(ctx context.Context) error {
	if j.Facilities == nil {
		return errors.New("realtime resync: facility repository not configured")
	}
	all, err := j.Facilities.ListAll(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		facility := &all[i]
		j.Bridge.PublishFacility(facility.ID, facility)

		items, err := j.Facilities.ListEquipment(ctx, facility.ID)
		if err != nil {
			return err
		}
		for k := range items {
			j.Bridge.PublishEquipmentItem(facility.ID, items[k].EquipmentID, &items[k])
		}

		types, err := j.Facilities.DistinctEquipment(ctx, facility.ID)
		if err != nil {
			return err
		}
		j.Bridge.PublishEquipmentMetadata(facility.ID, types)
	}
	j.metrics().AddRepublished("facility", len(all))
	return nil
}

func (j *ResyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ResyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRealtimeResync))
	}
	return slog.Default().With(slog.String("job", TaskRealtimeResync))
}
