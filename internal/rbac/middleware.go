package rbac

import (
	"log/slog"
	"net/http"
	"strings"
)

// PrincipalFunc resolves the actor for a request. It returns false when the
// request is unauthenticated.
type PrincipalFunc func(r *http.Request) (Principal, bool)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Principal PrincipalFunc
	Logger    *slog.Logger
}

// RequireAny ensures the current user holds at least one of the grants,
// each written as "<feature>-<action>".
func (m Middleware) RequireAny(grants ...string) func(http.Handler) http.Handler {
	required := normalizeGrants(grants)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := m.principal(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if hasAnyGrant(principal, required) {
				next.ServeHTTP(w, r)
				return
			}
			m.denied(r, required)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the current user holds every listed grant.
func (m Middleware) RequireAll(grants ...string) func(http.Handler) http.Handler {
	required := normalizeGrants(grants)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := m.principal(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if hasAllGrants(principal, required) {
				next.ServeHTTP(w, r)
				return
			}
			m.denied(r, required)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireRole ensures the current user holds the named role.
func (m Middleware) RequireRole(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := m.principal(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !principal.HasRole(name) {
				m.denied(r, []string{name})
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) principal(r *http.Request) (Principal, bool) {
	if m.Principal == nil {
		return nil, false
	}
	p, ok := m.Principal(r)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

func (m Middleware) denied(r *http.Request, required []string) {
	if m.Logger == nil {
		return
	}
	m.Logger.Debug("rbac denied", slog.String("path", r.URL.Path), slog.Any("required", required))
}

// normalizeGrants trims and deduplicates grants. Case is significant.
func normalizeGrants(grants []string) []string {
	unique := make(map[string]struct{}, len(grants))
	normalized := make([]string, 0, len(grants))
	for _, g := range grants {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, ok := unique[g]; ok {
			continue
		}
		unique[g] = struct{}{}
		normalized = append(normalized, g)
	}
	return normalized
}

func hasAnyGrant(p Principal, required []string) bool {
	for _, g := range required {
		feature, action := SplitGrant(g)
		if p.HasPermission(feature, action) {
			return true
		}
	}
	return false
}

func hasAllGrants(p Principal, required []string) bool {
	for _, g := range required {
		feature, action := SplitGrant(g)
		if !p.HasPermission(feature, action) {
			return false
		}
	}
	return true
}
