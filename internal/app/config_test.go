package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("SESSION_BASE_URL", "http://sessions.internal")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "/session/me", cfg.SessionMePath)
	require.Equal(t, 10*time.Second, cfg.SessionTimeout)
	require.False(t, cfg.AuthAdminOnEmptyRoles)
	require.Equal(t, 4096, cfg.AuthResolverCacheSize)
	require.Equal(t, 10, cfg.AuthLoginRateLimit)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSessionBoundary(t *testing.T) {
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("SESSION_BASE_URL", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsFailOpenInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_ADMIN_ON_EMPTY_ROLES", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.AuthAdminOnEmptyRoles)

	t.Setenv("APP_ENV", "production")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, "DEBUG", parseLevel(&Config{LogLevel: "Debug"}).String())
	require.Equal(t, "INFO", parseLevel(nil).String())
	require.Equal(t, "INFO", parseLevel(&Config{LogLevel: "verbose"}).String())
}
