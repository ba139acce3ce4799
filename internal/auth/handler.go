package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-access/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-access/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows and permission queries.
type Handler struct {
	logger         *slog.Logger
	registry       *Registry
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	loginLimit     int
}

// NewHandler constructs a Handler instance. loginLimit caps login attempts
// per client IP per minute; zero disables the cap.
func NewHandler(logger *slog.Logger, registry *Registry, sessions *shared.SessionManager, csrf *shared.CSRFManager, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		registry:       registry,
		sessionManager: sessions,
		csrfManager:    csrf,
		loginLimit:     loginLimit,
	}
}

// Middleware binds the browser session's resolver to the request context.
// A resolver that lost its cached user (eviction, restart) is rebuilt from
// the stored token before the request proceeds.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		res := h.registry.Get(sess.ID)
		if res.State() == StateAnonymous && sess.User() != "" {
			if _, err := res.CurrentUser(r.Context()); err != nil {
				h.logger.Warn("restore session user", slog.Any("error", err))
			}
		}
		next.ServeHTTP(w, r.WithContext(ContextWithResolver(r.Context(), res)))
	})
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.csrfToken)
	r.Group(func(r chi.Router) {
		if h.loginLimit > 0 {
			r.Use(httprate.LimitByIP(h.loginLimit, time.Minute))
		}
		r.Post("/login", h.handleLogin)
	})
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.me)
	r.Get("/permissions", h.permissions)
	r.Get("/permissions/effective", h.effectivePermissions)
	r.Get("/check", h.check)
	r.Get("/roles/{name}", h.hasRole)
}

func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	res, sess, ok := h.resolver(w, r)
	if !ok {
		return
	}
	var creds Credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed login payload")
		return
	}
	result, err := res.Login(r.Context(), creds)
	if err != nil {
		h.respondError(w, "login", err)
		return
	}
	sess.SetUser(strconv.FormatInt(result.User.ID, 10))
	httpx.JSON(w, http.StatusOK, map[string]any{"user": result.User})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	res, sess, ok := h.resolver(w, r)
	if !ok {
		return
	}
	res.Logout(r.Context())
	h.registry.Remove(sess.ID)
	h.sessionManager.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	res, _, ok := h.resolver(w, r)
	if !ok {
		return
	}
	user, err := res.CurrentUser(r.Context())
	if err != nil {
		h.respondError(w, "me", err)
		return
	}
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user, "activeRole": user.ActiveRole()})
}

func (h *Handler) permissions(w http.ResponseWriter, r *http.Request) {
	res, _, ok := h.resolver(w, r)
	if !ok {
		return
	}
	perms := []string{}
	if user := res.User(); user != nil {
		perms = res.UserPermissions(user.ID)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	res, _, ok := h.resolver(w, r)
	if !ok {
		return
	}
	perms := []string{}
	if user := res.User(); user != nil {
		perms = res.EffectivePermissions(user.ID)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	res, _, ok := h.resolver(w, r)
	if !ok {
		return
	}
	feature := r.URL.Query().Get("feature")
	action := r.URL.Query().Get("action")
	if feature == "" || action == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "feature and action are required")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"feature": feature,
		"action":  action,
		"granted": res.HasPermission(feature, action),
	})
}

func (h *Handler) hasRole(w http.ResponseWriter, r *http.Request) {
	res, _, ok := h.resolver(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	httpx.JSON(w, http.StatusOK, map[string]any{"role": name, "granted": res.HasRole(name)})
}

func (h *Handler) resolver(w http.ResponseWriter, r *http.Request) (*Resolver, *shared.Session, bool) {
	sess, err := shared.RequestSession(r)
	if err != nil {
		h.logger.Error("resolve session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, nil, false
	}
	res := ResolverFromContext(r.Context())
	if res == nil {
		res = h.registry.Get(sess.ID)
	}
	return res, sess, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var statusErr *StatusError
	var transportErr *TransportError
	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		detail := "invalid username or password"
		if errors.As(err, &statusErr) && statusErr.Status >= 500 {
			h.logger.Warn(op+" upstream", slog.Int("status", statusErr.Status))
			httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "session service unavailable")
			return
		}
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", detail)
	case errors.Is(err, ErrSessionInvalidated):
		httpx.Problem(w, http.StatusConflict, "Conflict", "session changed during login")
	case errors.Is(err, ErrSessionFetchFailed), errors.As(err, &transportErr):
		h.logger.Warn(op+" upstream", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUpstream)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
