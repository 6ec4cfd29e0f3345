package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Provider names accepted by AUTH_PROVIDER.
const (
	ProviderIdentityToolkit = "identitytoolkit"
	ProviderKeycloak        = "keycloak"
)

// Session store kinds accepted by AUTH_SESSION_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQL    = "sql"
)

type Config struct {
	Profile string `env:"AUTH_PROFILE" envDefault:"default"`

	Provider string `env:"AUTH_PROVIDER" envDefault:"identitytoolkit"`

	// Identity Toolkit (Firebase-compatible) settings.
	ToolkitAPIKey     string `env:"AUTH_TOOLKIT_API_KEY"`
	ToolkitBaseURL    string `env:"AUTH_TOOLKIT_BASE_URL" envDefault:"https://identitytoolkit.googleapis.com"`
	ToolkitRefreshURL string `env:"AUTH_TOOLKIT_REFRESH_URL" envDefault:"https://securetoken.googleapis.com/v1/token"`

	KeycloakIssuer       string `env:"AUTH_KEYCLOAK_ISSUER"`
	KeycloakClientID     string `env:"AUTH_KEYCLOAK_CLIENT_ID"`
	KeycloakClientSecret string `env:"AUTH_KEYCLOAK_CLIENT_SECRET"`

	BackendURL   string        `env:"AUTH_BACKEND_URL" envDefault:"http://localhost:8080"`
	SessionPath  string        `env:"AUTH_SESSION_PATH" envDefault:"/auth/authenticate-session"`
	LogoutPath   string        `env:"AUTH_LOGOUT_PATH" envDefault:"/logout"`
	HTTPTimeout  time.Duration `env:"AUTH_HTTP_TIMEOUT" envDefault:"30s"`
	SignupPolicy string        `env:"AUTH_SIGNUP_POLICY" envDefault:"login-redirect"`

	LoginRoute     string `env:"AUTH_LOGIN_ROUTE" envDefault:"/auth/login"`
	SignupRoute    string `env:"AUTH_SIGNUP_ROUTE" envDefault:"/auth/signup"`
	DashboardRoute string `env:"AUTH_DASHBOARD_ROUTE" envDefault:"/auth/dashboard"`

	MessageTimeout time.Duration `env:"AUTH_MESSAGE_TIMEOUT" envDefault:"5s"`

	SessionStore  string        `env:"AUTH_SESSION_STORE" envDefault:"memory"`
	SessionTTL    time.Duration `env:"AUTH_SESSION_TTL" envDefault:"24h"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`

	// DatabaseDriver is "postgres" or "sqlite".
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN    string `env:"DATABASE_DSN"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements that env tags cannot express.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderIdentityToolkit:
		if c.ToolkitAPIKey == "" {
			return errors.New("config: AUTH_TOOLKIT_API_KEY is required for the identitytoolkit provider")
		}
	case ProviderKeycloak:
		if c.KeycloakIssuer == "" || c.KeycloakClientID == "" {
			return errors.New("config: AUTH_KEYCLOAK_ISSUER and AUTH_KEYCLOAK_CLIENT_ID are required for the keycloak provider")
		}
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}

	if _, err := url.ParseRequestURI(c.BackendURL); err != nil {
		return fmt.Errorf("config: invalid AUTH_BACKEND_URL: %w", err)
	}

	switch c.SignupPolicy {
	case "login-redirect", "auto-login":
	default:
		return fmt.Errorf("config: unknown signup policy %q", c.SignupPolicy)
	}

	switch c.SessionStore {
	case StoreMemory, StoreRedis:
	case StoreSQL:
		if c.DatabaseDSN == "" {
			return errors.New("config: DATABASE_DSN is required for the sql session store")
		}
	default:
		return fmt.Errorf("config: unknown session store %q", c.SessionStore)
	}

	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.DatabaseDriver)
	}

	return nil
}
