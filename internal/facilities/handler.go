package facilities

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shubhamkulkarni01/emstrack/internal/auth"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/httpx"
)

// Handler serves the facility and equipment endpoints.
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

// MountRoutes registers the facility endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/facility", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.remove)

		r.Route("/{id}/equipment", func(r chi.Router) {
			r.Get("/", h.listEquipment)
			r.Post("/", h.addEquipment)
			r.Get("/metadata", h.equipmentMetadata)
			r.Patch("/{equipmentID}", h.updateEquipment)
			r.Delete("/{equipmentID}", h.removeEquipment)
		})
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	facilities, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("list facilities failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, facilities)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	facility, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, facility)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateFacilityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	facility, err := h.service.Create(r.Context(), principal, req)
	if err != nil {
		h.logger.Error("create facility failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, facility)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	var req UpdateFacilityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	facility, err := h.service.Apply(r.Context(), principal, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, facility)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
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

func (h *Handler) listEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	items, err := h.service.ListEquipment(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) equipmentMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	types, err := h.service.EquipmentMetadata(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, types)
}

func (h *Handler) addEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	var req AddEquipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	item, err := h.service.AddEquipment(r.Context(), principal, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) updateEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	equipmentID, ok := pathInt64(w, r, "equipmentID", "invalid equipment id")
	if !ok {
		return
	}
	var req UpdateEquipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	item, err := h.service.UpdateEquipment(r.Context(), principal, id, equipmentID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) removeEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := facilityID(w, r)
	if !ok {
		return
	}
	equipmentID, ok := pathInt64(w, r, "equipmentID", "invalid equipment id")
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	if err := h.service.RemoveEquipment(r.Context(), principal, id, equipmentID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func facilityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return pathInt64(w, r, "id", "invalid facility id")
}

func pathInt64(w http.ResponseWriter, r *http.Request, param, message string) (int64, bool) {
	value, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", message)
		return 0, false
	}
	return value, true
}
