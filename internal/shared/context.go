package shared

import (
	"context"
	"net/http"
)

type sessionContextKey struct{}

// ContextWithSession stores the browser session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the browser session from context, or nil.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// RequestSession returns the session loaded for r, or ErrSessionMissing when
// the session middleware did not run.
func RequestSession(r *http.Request) (*Session, error) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		return nil, ErrSessionMissing
	}
	return sess, nil
}
