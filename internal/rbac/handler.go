package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-access/internal/platform/httpx"
)

// PermRoleManagementView gates the catalog endpoints.
const PermRoleManagementView = "role-management-view"

// Handler exposes the role catalog over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(PermRoleManagementView))
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{name}", h.getRole)
		r.Get("/permissions", h.listPermissions)
		r.Get("/permissions/{grant}/roles", h.rolesGranting)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.fail(w, "list roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "role not configured")
			return
		}
		h.fail(w, "get role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.fail(w, "list permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) rolesGranting(w http.ResponseWriter, r *http.Request) {
	grant := chi.URLParam(r, "grant")
	feature, action := SplitGrant(grant)
	names, err := h.service.RolesGranting(r.Context(), feature, action)
	if err != nil {
		h.fail(w, "roles granting", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"grant": grant, "roles": names})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Error("rbac "+op, slog.Any("error", err))
	}
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
