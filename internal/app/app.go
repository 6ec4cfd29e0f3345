package app

import (
	"context"
	"net/http"
	"net/url"

	"auth-client/internal/audit"
	"auth-client/internal/auth/provider"
	"auth-client/internal/bootstrap"
	"auth-client/internal/config"
	"auth-client/internal/logger"
	"auth-client/internal/session"
)

// Deps lets callers replace collaborators that would otherwise be built
// from the configuration. Navigator is required.
type Deps struct {
	Navigator bootstrap.Navigator
	Provider  provider.IdentityProvider
	Backend   bootstrap.Backend
}

// App is the wired client for one configuration profile.
type App struct {
	Config   config.Config
	Client   *bootstrap.Client
	Sessions session.Store
	// Events is nil unless a database is configured.
	Events *audit.SQLRecorder

	backendURL *url.URL
	infra      *Infra
}

func New(ctx context.Context, cfg config.Config, deps Deps) (*App, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a, err := build(ctx, cfg, deps, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg config.Config, deps Deps, infra *Infra) (*App, error) {
	sessions, err := infra.sessionStore(cfg.SessionStore)
	if err != nil {
		return nil, err
	}
	recorder, events := infra.auditRecorder()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	idp := deps.Provider
	if idp == nil {
		registry, err := setupProviders(ctx, cfg, httpClient)
		if err != nil {
			return nil, err
		}
		if idp, err = registry.Get(cfg.Provider); err != nil {
			return nil, err
		}
	}

	api := deps.Backend
	if api == nil {
		b, err := setupBackend(cfg)
		if err != nil {
			return nil, err
		}
		api = b
	}

	backendURL, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return nil, err
	}

	client, err := bootstrap.New(bootstrap.Deps{
		Provider:  idp,
		Backend:   api,
		Navigator: deps.Navigator,
		Sessions:  sessions,
		Audit:     recorder,
	}, bootstrap.Options{
		Profile: cfg.Profile,
		Routes: bootstrap.Routes{
			Login:     cfg.LoginRoute,
			Signup:    cfg.SignupRoute,
			Dashboard: cfg.DashboardRoute,
		},
		SignupPolicy: bootstrap.SignupPolicy(cfg.SignupPolicy),
		SessionTTL:   cfg.SessionTTL,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("auth client ready", map[string]any{
		"profile":  cfg.Profile,
		"provider": idp.Name(),
		"store":    cfg.SessionStore,
		"backend":  cfg.BackendURL,
	})

	return &App{
		Config:     cfg,
		Client:     client,
		Sessions:   sessions,
		Events:     events,
		backendURL: backendURL,
		infra:      infra,
	}, nil
}

// BackendURL is the origin navigation targets resolve against.
func (a *App) BackendURL() *url.URL {
	u := *a.backendURL
	return &u
}

// Session returns the persisted session of the configured profile, if any.
func (a *App) Session(ctx context.Context) (*session.Record, error) {
	return a.Sessions.Get(ctx, a.Config.Profile)
}

func (a *App) Close() error {
	a.Client.Close()
	return a.infra.Close()
}
