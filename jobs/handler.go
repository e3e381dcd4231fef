package jobs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/shubhamkulkarni01/emstrack/internal/auth"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/httpx"
)

// Enqueuer submits resync tasks. Client satisfies it; tests substitute a
// recording fake.
type Enqueuer interface {
	EnqueueResync(ctx context.Context, payload ResyncPayload) (*asynq.TaskInfo, error)
}

// Handler exposes the on-demand resync trigger. Scheduled runs cover the
// steady state; this endpoint lets operators force convergence after a
// broker wipe without waiting for the next cron tick.
type Handler struct {
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewHandler constructs an HTTP handler for job endpoints.
func NewHandler(enqueuer Enqueuer, logger *slog.Logger) *Handler {
	return &Handler{enqueuer: enqueuer, logger: logger}
}

// MountRoutes attaches the job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/resync", h.resync)
}

type resyncResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

func (h *Handler) resync(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if !principal.IsSuperUser() && !principal.IsStaff() {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	var payload ResyncPayload
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
			return
		}
	}
	switch payload.Class {
	case "", "vehicle", "facility":
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "class must be vehicle or facility")
		return
	}

	info, err := h.enqueuer.EnqueueResync(r.Context(), payload)
	if err != nil {
		h.logger.Error("enqueue resync failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, resyncResponse{TaskID: info.ID, Queue: info.Queue})
}
