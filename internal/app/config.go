package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	CSRFSecret    string        `envconfig:"CSRF_SECRET" required:"true"`

	SessionBaseURL    string        `envconfig:"SESSION_BASE_URL" required:"true"`
	SessionMePath     string        `envconfig:"SESSION_ME_PATH" default:"/session/me"`
	SessionLoginPath  string        `envconfig:"SESSION_LOGIN_PATH" default:"/session/login"`
	SessionLogoutPath string        `envconfig:"SESSION_LOGOUT_PATH" default:"/session/logout"`
	SessionTimeout    time.Duration `envconfig:"SESSION_TIMEOUT" default:"10s"`

	AuthGrantsFile        string        `envconfig:"AUTH_GRANTS_FILE"`
	AuthAdminOnEmptyRoles bool          `envconfig:"AUTH_ADMIN_ON_EMPTY_ROLES" default:"false"`
	AuthResolverCacheSize int           `envconfig:"AUTH_RESOLVER_CACHE_SIZE" default:"4096"`
	AuthResolverTTL       time.Duration `envconfig:"AUTH_RESOLVER_TTL" default:"1h"`
	AuthLoginRateLimit    int           `envconfig:"AUTH_LOGIN_RATE_LIMIT" default:"10"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.SessionBaseURL == "" {
		return nil, errors.New("session base url must be provided")
	}
	if cfg.AuthAdminOnEmptyRoles && cfg.IsProduction() {
		return nil, errors.New("AUTH_ADMIN_ON_EMPTY_ROLES is not allowed in production")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
