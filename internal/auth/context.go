package auth

import (
	"context"
	"net/http"

	"github.com/odyssey-erp/odyssey-access/internal/rbac"
)

type resolverContextKey struct{}

// ContextWithResolver stores the session resolver in context.
func ContextWithResolver(ctx context.Context, res *Resolver) context.Context {
	return context.WithValue(ctx, resolverContextKey{}, res)
}

// ResolverFromContext extracts the session resolver from context.
func ResolverFromContext(ctx context.Context) *Resolver {
	res, _ := ctx.Value(resolverContextKey{}).(*Resolver)
	return res
}

// RequestPrincipal resolves the authenticated principal of a request for
// rbac.Middleware.
func RequestPrincipal(r *http.Request) (rbac.Principal, bool) {
	res := ResolverFromContext(r.Context())
	if res == nil || res.State() != StateAuthenticated {
		return nil, false
	}
	return res, true
}
