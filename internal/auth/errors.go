package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Session boundary operations.
const (
	OpLogin  = "login"
	OpMe     = "me"
	OpLogout = "logout"
)

var (
	// ErrAuthenticationFailed indicates bad credentials or a rejected login.
	ErrAuthenticationFailed = errors.New("auth: authentication failed")
	// ErrSessionFetchFailed indicates the session endpoint answered with an unexpected status.
	ErrSessionFetchFailed = errors.New("auth: session fetch failed")
	// ErrUnauthorized indicates the session endpoint no longer recognises the token.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrSessionInvalidated indicates the session changed while a login was in flight.
	ErrSessionInvalidated = errors.New("auth: session invalidated")
)

// StatusError reports a non-2xx answer from the session boundary.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("auth: %s: %d: %s", e.Op, e.Status, e.Message)
}

// Is maps the status onto the sentinel errors of its operation.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrAuthenticationFailed:
		return e.Op == OpLogin
	case ErrSessionFetchFailed:
		return e.Op == OpMe && e.Status != http.StatusUnauthorized
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// TransportError reports a failure to reach the session boundary at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("auth: %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
