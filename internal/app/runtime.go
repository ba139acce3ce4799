package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-access/internal/auth"
	"github.com/odyssey-erp/odyssey-access/internal/observability"
	"github.com/odyssey-erp/odyssey-access/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-access/internal/rbac"
	"github.com/odyssey-erp/odyssey-access/internal/shared"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads the ODYSSEY_TEST_MODE flag once.
func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// Runtime holds the wired application.
type Runtime struct {
	Redis   *redis.Client
	Grants  *rbac.GrantTable
	Router  http.Handler
	Metrics *observability.Metrics
}

// LoadGrants builds the grant table, applying the override file if configured.
func LoadGrants(cfg *Config) (*rbac.GrantTable, error) {
	if cfg == nil || cfg.AuthGrantsFile == "" {
		return rbac.NewGrantTable(nil), nil
	}
	overrides, err := rbac.LoadGrantFile(cfg.AuthGrantsFile)
	if err != nil {
		return nil, err
	}
	return rbac.NewGrantTable(overrides), nil
}

// NewRuntime connects to Redis and wires handlers. redisClient may be nil,
// in which case one is dialled from cfg.RedisAddr.
func NewRuntime(ctx context.Context, cfg *Config, logger *slog.Logger, redisClient *redis.Client) (*Runtime, error) {
	if redisClient == nil {
		client, err := cache.New(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		redisClient = client
	}

	grants, err := LoadGrants(cfg)
	if err != nil {
		return nil, err
	}

	gateway, err := auth.NewHTTPGateway(auth.GatewayConfig{
		BaseURL:    cfg.SessionBaseURL,
		MePath:     cfg.SessionMePath,
		LoginPath:  cfg.SessionLoginPath,
		LogoutPath: cfg.SessionLogoutPath,
		Timeout:    cfg.SessionTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("app: session gateway: %w", err)
	}

	metrics := observability.NewMetrics()
	validate := validator.New()
	if cfg.AuthAdminOnEmptyRoles {
		logger.Warn("users without roles will be granted the super role", slog.String("role", rbac.SuperRole))
	}

	registry := auth.NewRegistry(cfg.AuthResolverCacheSize, cfg.AuthResolverTTL, func(sessionID string) *auth.Resolver {
		store := auth.NewRedisStore(redisClient, sessionID, cfg.SessionTTL)
		return auth.NewResolver(gateway, store, grants, auth.Options{
			AdminOnEmptyRoles: cfg.AuthAdminOnEmptyRoles,
			FetchTimeout:      cfg.SessionTimeout,
			Logger:            logger.With(slog.String("component", "auth")),
			Recorder:          metrics,
			Validator:         validate,
		})
	})

	sessionManager := shared.NewSessionManager(redisClient, "odyssey_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	authHandler := auth.NewHandler(logger, registry, sessionManager, csrfManager, cfg.AuthLoginRateLimit)

	rbacMiddleware := rbac.Middleware{Principal: auth.RequestPrincipal, Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbac.NewService(grants), rbacMiddleware)

	router := NewRouter(RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		RBACHandler:    rbacHandler,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,
	})

	return &Runtime{Redis: redisClient, Grants: grants, Router: router, Metrics: metrics}, nil
}

// Close releases the Redis connection.
func (rt *Runtime) Close() error {
	if rt == nil || rt.Redis == nil {
		return nil
	}
	return rt.Redis.Close()
}
