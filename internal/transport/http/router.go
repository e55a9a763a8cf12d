// Package httptransport assembles the public HTTP surface: middleware chain,
// health and metrics endpoints, and the verification routes. Handlers stay in
// their domain packages; this layer only mounts them.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Coritp27/sysga-sub002/internal/platform/middleware"
	verifhandler "github.com/Coritp27/sysga-sub002/internal/verification/handler"
	"github.com/Coritp27/sysga-sub002/pkg/platform/httputil"
)

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Logger       *slog.Logger
	Resolver     middleware.ActorResolver
	Verification *verifhandler.Handler
	AdminToken   string
	Health       map[string]HealthCheck
}

// NewRouter builds the full HTTP handler tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", healthHandler(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	// Actor-facing surface: everything here requires a resolved identity.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor(deps.Resolver, deps.Logger))
		deps.Verification.Register(r)
	})

	// Scheduler/operator surface.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(deps.AdminToken, deps.Logger))
		deps.Verification.RegisterAdmin(r)
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks)+1)
		report["status"] = "ok"
		for name, check := range checks {
			if err := check(ctx); err != nil {
				report[name] = err.Error()
				report["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		httputil.WriteJSON(w, status, report)
	}
}
