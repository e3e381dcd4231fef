package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shubhamkulkarni01/emstrack/internal/auth"
	"github.com/shubhamkulkarni01/emstrack/internal/facilities"
	"github.com/shubhamkulkarni01/emstrack/internal/observability"
	"github.com/shubhamkulkarni01/emstrack/internal/vehicles"
	"github.com/shubhamkulkarni01/emstrack/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AuthHandler     *auth.Handler
	AuthMiddleware  *auth.Middleware
	VehicleHandler  *vehicles.Handler
	FacilityHandler *facilities.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with EMSTrack defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		params.AuthHandler.MountRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(params.AuthMiddleware.RequireAuth)
			params.VehicleHandler.MountRoutes(protected)
			params.FacilityHandler.MountRoutes(protected)
			if params.JobHandler != nil {
				params.JobHandler.MountRoutes(protected)
			}
		})
	})

	return r
}
