package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-access/internal/rbac"
)

// State describes where a resolver is in its session lifecycle.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Recorder receives resolver outcomes for metrics.
type Recorder interface {
	ObserveLogin(outcome string)
	ObserveSessionFetch(outcome string)
	ObservePermissionCheck(granted bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLogin(string)         {}
func (nopRecorder) ObserveSessionFetch(string)  {}
func (nopRecorder) ObservePermissionCheck(bool) {}

// Options tunes a Resolver.
type Options struct {
	// AdminOnEmptyRoles grants the super role to users the session endpoint
	// returns without any roles. Off by default.
	AdminOnEmptyRoles bool
	// FetchTimeout bounds a shared session fetch, which outlives the
	// cancellation of any single caller. Defaults to 10s.
	FetchTimeout time.Duration
	Logger       *slog.Logger
	Recorder     Recorder
	Validator    *validator.Validate
}

// Resolver owns the current user of one session and answers authorization
// queries against it. All queries are served from memory.
type Resolver struct {
	gateway  Gateway
	store    Store
	grants   *rbac.GrantTable
	opts     Options
	logger   *slog.Logger
	recorder Recorder
	validate *validator.Validate

	// commit serialises identity changes (login, fetch, logout, SetUser).
	commit sync.Mutex

	mu      sync.RWMutex
	user    *User
	epoch   uint64
	pending int

	flight singleflight.Group
}

// NewResolver constructs a Resolver in the anonymous state.
func NewResolver(gateway Gateway, store Store, grants *rbac.GrantTable, opts Options) *Resolver {
	if grants == nil {
		grants = rbac.NewGrantTable(nil)
	}
	if store == nil {
		store = NewMemoryStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	validate := opts.Validator
	if validate == nil {
		validate = validator.New()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	return &Resolver{
		gateway:  gateway,
		store:    store,
		grants:   grants,
		opts:     opts,
		logger:   logger,
		recorder: recorder,
		validate: validate,
	}
}

// Login authenticates credentials against the session boundary. A failed
// login leaves any existing session untouched.
func (r *Resolver) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if err := r.validate.Struct(creds); err != nil {
		r.recorder.ObserveLogin("invalid")
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	epoch := r.begin()
	defer r.end()

	res, err := r.gateway.Login(ctx, creds)
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			r.recorder.ObserveLogin("rejected")
		} else {
			r.recorder.ObserveLogin("error")
		}
		return nil, err
	}
	if res == nil || res.User == nil {
		r.recorder.ObserveLogin("error")
		return nil, fmt.Errorf("%w: response carried no user", ErrAuthenticationFailed)
	}
	user := r.normalizeUser(res.User)

	r.commit.Lock()
	defer r.commit.Unlock()
	if r.epochChanged(epoch) {
		r.recorder.ObserveLogin("invalidated")
		return nil, ErrSessionInvalidated
	}
	if res.Token != "" {
		if err := r.store.Set(ctx, KeyToken, res.Token); err != nil {
			r.recorder.ObserveLogin("error")
			return nil, fmt.Errorf("auth: persist token: %w", err)
		}
	}
	r.setUser(user)
	r.recorder.ObserveLogin("success")
	r.logger.Info("login", slog.Int64("user_id", user.ID), slog.Int("roles", len(user.Roles)))
	return &LoginResult{Token: res.Token, User: user.Clone()}, nil
}

// CurrentUser returns the session's user, refreshing it from the session
// boundary. Without a stored token it returns (nil, nil) and makes no call.
// Concurrent callers share one in-flight fetch.
func (r *Resolver) CurrentUser(ctx context.Context) (*User, error) {
	epoch := r.begin()
	defer r.end()

	token, err := r.store.Get(ctx, KeyToken)
	if err != nil {
		return nil, fmt.Errorf("auth: read token: %w", err)
	}
	if r.epochChanged(epoch) {
		// The token may belong to a session that has since ended.
		r.recorder.ObserveSessionFetch("discarded")
		return r.User(), nil
	}
	if token == "" {
		r.recorder.ObserveSessionFetch("anonymous")
		return nil, nil
	}

	key := token + "#" + strconv.FormatUint(epoch, 10)
	ch := r.flight.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.FetchTimeout)
		defer cancel()
		return r.fetch(fetchCtx, token, epoch)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		user, _ := res.Val.(*User)
		return user.Clone(), nil
	}
}

func (r *Resolver) fetch(ctx context.Context, token string, epoch uint64) (*User, error) {
	fetched, err := r.gateway.Me(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			r.evict(ctx, epoch)
			r.recorder.ObserveSessionFetch("unauthorized")
			return nil, nil
		}
		r.recorder.ObserveSessionFetch("error")
		return nil, err
	}
	if fetched == nil {
		r.recorder.ObserveSessionFetch("error")
		return nil, fmt.Errorf("%w: response carried no user", ErrSessionFetchFailed)
	}
	user := r.normalizeUser(fetched)

	r.commit.Lock()
	defer r.commit.Unlock()
	if r.epochChanged(epoch) {
		// The session moved on while we waited; report what it holds now.
		r.recorder.ObserveSessionFetch("discarded")
		return r.User(), nil
	}
	r.setUser(user)
	r.recorder.ObserveSessionFetch("success")
	return user, nil
}

// evict drops the token and user after the boundary rejected the token,
// unless the session already changed.
func (r *Resolver) evict(ctx context.Context, epoch uint64) {
	r.commit.Lock()
	defer r.commit.Unlock()
	if r.epochChanged(epoch) {
		return
	}
	if err := r.store.Delete(ctx, KeyToken); err != nil {
		r.logger.Warn("evict token", slog.Any("error", err))
	}
	r.setUser(nil)
}

// Logout ends the session. Local artifacts and the cached user are always
// cleared; the boundary is then notified on a best-effort basis.
func (r *Resolver) Logout(ctx context.Context) {
	token := r.clearSession(ctx)
	if r.gateway == nil {
		return
	}
	if err := r.gateway.Logout(ctx, token); err != nil {
		r.logger.Warn("logout notify", slog.Any("error", err))
	}
}

// clearSession drops the user and stored artifacts, returning the token
// that was held.
func (r *Resolver) clearSession(ctx context.Context) string {
	r.commit.Lock()
	defer r.commit.Unlock()

	r.setUser(nil)

	token, err := r.store.Get(ctx, KeyToken)
	if err != nil {
		r.logger.Warn("logout read token", slog.Any("error", err))
	}
	if err := r.store.Delete(ctx, SessionKeys...); err != nil {
		r.logger.Warn("logout clear store", slog.Any("error", err))
	}
	return token
}

// SetUser replaces the current user. Roles are normalized; nil clears the session user.
func (r *Resolver) SetUser(user *User) {
	var normalized *User
	if user != nil {
		normalized = r.normalizeUser(user)
	}
	r.commit.Lock()
	defer r.commit.Unlock()
	r.setUser(normalized)
}

// User returns a copy of the cached user, or nil when anonymous.
func (r *Resolver) User() *User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.user.Clone()
}

// State reports the lifecycle state.
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.user != nil:
		return StateAuthenticated
	case r.pending > 0:
		return StateAuthenticating
	default:
		return StateAnonymous
	}
}

// HasPermission reports whether any of the user's roles grants feature/action.
func (r *Resolver) HasPermission(feature, action string) bool {
	r.mu.RLock()
	granted := r.user != nil && rbac.HasPermission(r.user.Roles, feature, action)
	r.mu.RUnlock()
	r.recorder.ObservePermissionCheck(granted)
	return granted
}

// HasRole reports whether the user holds a role named exactly name.
func (r *Resolver) HasRole(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.user != nil && rbac.HasRole(r.user.Roles, name)
}

// UserPermissions lists the user's permissions as "<feature>-<action>" in
// role order. A permission granted by two roles is listed twice. It returns
// an empty list when userID is not the cached user.
func (r *Resolver) UserPermissions(userID int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.user == nil || r.user.ID != userID {
		return []string{}
	}
	return rbac.PermissionKeys(r.user.Roles)
}

// EffectivePermissions is UserPermissions without repeats.
func (r *Resolver) EffectivePermissions(userID int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.user == nil || r.user.ID != userID {
		return []string{}
	}
	return rbac.UniquePermissionKeys(r.user.Roles)
}

func (r *Resolver) normalizeUser(in *User) *User {
	user := in.Clone()
	if len(user.Roles) == 0 {
		if r.opts.AdminOnEmptyRoles {
			r.logger.Warn("user has no roles, assigning default role",
				slog.Int64("user_id", user.ID), slog.String("role", rbac.SuperRole))
			user.Roles = []rbac.Role{r.grants.ExpandRole(rbac.SuperRole)}
		} else {
			r.logger.Warn("user has no roles", slog.Int64("user_id", user.ID))
			user.Roles = []rbac.Role{}
		}
	} else {
		for _, role := range user.Roles {
			if len(role.Permissions) == 0 {
				r.logger.Debug("expanding role from grant table", slog.String("role", role.Name))
			}
		}
		user.Roles = r.grants.NormalizeRoles(user.Roles)
	}
	if user.CurrentRole != nil {
		role := r.grants.NormalizeRole(*user.CurrentRole)
		user.CurrentRole = &role
	}
	return user
}

// begin marks a boundary call in flight and captures the session epoch.
func (r *Resolver) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending++
	return r.epoch
}

func (r *Resolver) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending--
}

func (r *Resolver) epochChanged(epoch uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.epoch != epoch
}

// setUser swaps the cached user and starts a new epoch. Callers hold commit.
func (r *Resolver) setUser(user *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = user
	r.epoch++
}

var _ rbac.Principal = (*Resolver)(nil)
