package app

import (
	"context"
	"net/http"

	"auth-client/internal/auth/provider"
	"auth-client/internal/auth/provider/identitytoolkit"
	"auth-client/internal/auth/provider/keycloak"
	"auth-client/internal/backend"
	"auth-client/internal/config"
)

// setupProviders builds the configured identity provider and returns the
// registry holding it. Keycloak runs OIDC discovery here.
func setupProviders(ctx context.Context, cfg config.Config, client *http.Client) (*provider.Registry, error) {
	var p provider.IdentityProvider

	switch cfg.Provider {
	case config.ProviderKeycloak:
		kc, err := keycloak.New(
			ctx,
			cfg.KeycloakIssuer,
			cfg.KeycloakClientID,
			cfg.KeycloakClientSecret,
			client,
		)
		if err != nil {
			return nil, err
		}
		p = kc
	default:
		it, err := identitytoolkit.New(identitytoolkit.Config{
			APIKey:     cfg.ToolkitAPIKey,
			BaseURL:    cfg.ToolkitBaseURL,
			RefreshURL: cfg.ToolkitRefreshURL,
			HTTPClient: client,
		})
		if err != nil {
			return nil, err
		}
		p = it
	}

	return provider.NewRegistry(p)
}

func setupBackend(cfg config.Config) (*backend.Client, error) {
	return backend.New(backend.Options{
		BaseURL:     cfg.BackendURL,
		SessionPath: cfg.SessionPath,
		LogoutPath:  cfg.LogoutPath,
		Timeout:     cfg.HTTPTimeout,
	})
}
