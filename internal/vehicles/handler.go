package vehicles

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/shubhamkulkarni01/emstrack/internal/auth"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/httpx"
	"github.com/shubhamkulkarni01/emstrack/internal/shared"
)

// Handler serves the vehicle endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers the vehicle endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/vehicle", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.remove)
		// history reads fan out to COUNT + page queries, so they get a
		// tighter per-client budget than the rest of the API
		r.With(httprate.LimitByIP(60, time.Minute)).Get("/{id}/updates", h.listUpdates)
		r.Post("/{id}/updates", h.bulkUpdate)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	vehicles, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("list vehicles failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicles)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	vehicle, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateVehicleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	vehicle, err := h.service.Create(r.Context(), principal, req)
	if err != nil {
		h.logger.Error("create vehicle failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, vehicle)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateVehicleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	vehicle, err := h.service.Apply(r.Context(), principal, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var reqs []UpdateVehicleRequest
	if err := httpx.DecodeJSON(r, &reqs); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	vehicle, err := h.service.ApplyUpdates(r.Context(), principal, id, reqs)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUpdates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	page, perPage := shared.PageFromRequest(r, 25, 100)
	pg := shared.NewPagination(page, perPage, 0)
	principal := auth.PrincipalFromContext(r.Context())
	updates, total, err := h.service.Updates(r.Context(), principal, id, pg.PerPage, pg.Offset())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, HistoryPage{Count: total, Results: updates})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid vehicle id")
		return 0, false
	}
	return id, true
}
