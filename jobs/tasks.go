package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRealtimeResync republishes all retained broadcast state so late
	// subscribers and a restarted broker converge on the store.
	TaskRealtimeResync = "realtime:resync"
)

// ResyncPayload narrows a resync run to one resource class, or everything
// when empty.
type ResyncPayload struct {
	Class string `json:"class,omitempty"`
}

// NewResyncTask constructs an Asynq task.
func NewResyncTask(payload ResyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRealtimeResync, data), nil
}
