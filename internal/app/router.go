package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-access/internal/auth"
	"github.com/odyssey-erp/odyssey-access/internal/observability"
	"github.com/odyssey-erp/odyssey-access/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-access/internal/rbac"
	"github.com/odyssey-erp/odyssey-access/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	RBACHandler    *rbac.Handler
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics
}

// featureRoutes gates the plant workspaces the frontend navigates to. Each
// entry answers whether the caller may open the workspace.
var featureRoutes = map[string]string{
	"/schedule":          "schedule-view",
	"/shop-floor":        "shop-floor-view",
	"/business-goals":    "business-goals-view",
	"/capacity-planning": "capacity-planning-view",
	"/maintenance":       "maintenance-planning-view",
	"/user-management":   "user-management-view",
	"/systems":           "systems-management-view",
	"/training":          "training-view",
}

// NewRouter constructs the chi.Router with Odyssey defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(params.AuthHandler.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.RBACHandler != nil {
		r.Route("/rbac", params.RBACHandler.MountRoutes)
	}

	r.Route("/workspaces", func(r chi.Router) {
		for path, grant := range featureRoutes {
			grant := grant
			r.With(params.RBACMiddleware.RequireAny(grant)).Get(path, func(w http.ResponseWriter, r *http.Request) {
				httpx.JSON(w, http.StatusOK, map[string]any{"workspace": r.URL.Path, "grant": grant})
			})
		}
	})

	return r
}
