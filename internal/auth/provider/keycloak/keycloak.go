package keycloak

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"auth-client/internal/auth"
	"auth-client/internal/auth/provider"
	"auth-client/internal/logger"
)

const providerName = "keycloak"

// Provider authenticates against a Keycloak realm with the OAuth2 resource
// owner password grant and verifies the returned id_token via OIDC
// discovery. Account creation is not exposed by this grant.
type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	endSession  string
	client      *http.Client
	notifier    provider.Notifier

	mu      sync.Mutex
	current *signedIn
}

type signedIn struct {
	user    auth.User
	token   *oauth2.Token
	idToken auth.IDToken
}

var _ provider.IdentityProvider = (*Provider)(nil)

// New initializes a Keycloak OIDC provider using discovery.
// issuer must be the realm issuer URL, e.g.
// http://localhost:8081/realms/app
func New(
	ctx context.Context,
	issuer string,
	clientID string,
	clientSecret string,
	httpClient *http.Client,
) (*Provider, error) {

	if issuer == "" || clientID == "" {
		return nil, errors.New("keycloak oauth config missing required fields")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = oidc.ClientContext(ctx, httpClient)
	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init keycloak oidc provider: %w", err)
	}

	var discovery struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := oidcProvider.Claims(&discovery); err != nil {
		return nil, fmt.Errorf("keycloak discovery claims parse failed: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes: []string{
			oidc.ScopeOpenID,
			"email",
			"profile",
		},
	}

	return &Provider{
		oauthConfig: oauthCfg,
		verifier:    verifier,
		endSession:  discovery.EndSessionEndpoint,
		client:      httpClient,
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// CreateAccount is not available through the password grant.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*auth.User, error) {
	return nil, auth.NewProviderError(
		auth.CodeOperationNotAllowed,
		"keycloak realm does not accept registration from this client",
	)
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*auth.User, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.oauthConfig.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		logger.Warn("keycloak password grant failed", map[string]any{
			"error": err,
		})
		return nil, translate(err)
	}

	s, err := p.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = s
	p.mu.Unlock()

	u := s.user
	p.notifier.Notify(provider.StateChange{Kind: provider.StateSignedIn, User: &u})
	return &u, nil
}

// SignOut ends the realm session when the realm advertises an
// end_session_endpoint, and always drops local state.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	cur := p.current
	p.current = nil
	p.mu.Unlock()

	if cur == nil {
		return nil
	}
	defer p.notifier.Notify(provider.StateChange{Kind: provider.StateSignedOut})

	if p.endSession == "" || cur.token.RefreshToken == "" {
		return nil
	}

	form := url.Values{
		"client_id":     {p.oauthConfig.ClientID},
		"refresh_token": {cur.token.RefreshToken},
	}
	if p.oauthConfig.ClientSecret != "" {
		form.Set("client_secret", p.oauthConfig.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endSession, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("keycloak logout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return auth.NewProviderError(auth.CodeUnknown, "keycloak logout returned "+resp.Status)
	}
	return nil
}

func (p *Provider) IDToken(ctx context.Context, user *auth.User) (auth.IDToken, error) {
	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()

	if cur == nil || user == nil || cur.user.UID != user.UID {
		return "", auth.ErrNoCurrentUser
	}
	if cur.token.Valid() {
		return cur.idToken, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.oauthConfig.TokenSource(ctx, cur.token).Token()
	if err != nil {
		return "", translate(err)
	}

	s, err := p.verify(ctx, token)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	if p.current != nil && p.current.user.UID == s.user.UID {
		p.current = s
	}
	p.mu.Unlock()

	u := s.user
	p.notifier.Notify(provider.StateChange{Kind: provider.StateTokenRefreshed, User: &u})
	return s.idToken, nil
}

func (p *Provider) OnAuthStateChanged(fn func(provider.StateChange)) func() {
	return p.notifier.Subscribe(fn)
}

func (p *Provider) verify(ctx context.Context, token *oauth2.Token) (*signedIn, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("keycloak did not return id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		logger.Error("keycloak id_token verification failed", map[string]any{
			"error": err,
		})
		return nil, err
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("keycloak id_token claims parse failed: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("keycloak id_token missing required claims")
	}

	logger.Debug("keycloak oidc verified", map[string]any{
		"issuer":         idToken.Issuer,
		"email_present":  claims.Email != "",
		"email_verified": claims.EmailVerified,
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	return &signedIn{
		user: auth.User{
			Provider: providerName,
			UID:      claims.Subject,
			Email:    claims.Email,
		},
		token:   token,
		idToken: auth.IDToken(rawIDToken),
	}, nil
}

// translate maps token endpoint failures to provider codes. Keycloak
// reports most credential problems as invalid_grant and distinguishes them
// only in error_description.
func translate(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return fmt.Errorf("keycloak token request failed: %w", err)
	}

	desc := strings.ToLower(re.ErrorDescription)
	pe := &auth.ProviderError{Message: re.ErrorDescription, Err: err}

	switch re.ErrorCode {
	case "invalid_grant":
		switch {
		case strings.Contains(desc, "disabled"):
			pe.Code = auth.CodeUserDisabled
		case strings.Contains(desc, "invalid user credentials"):
			pe.Code = auth.CodeInvalidCredential
		default:
			pe.Code = auth.CodeUnknown
		}
	case "unauthorized_client":
		pe.Code = auth.CodeOperationNotAllowed
	case "":
		pe.Code = auth.CodeUnknown
	default:
		pe.Code = auth.Code(strings.ReplaceAll(re.ErrorCode, "_", "-"))
	}
	if pe.Message == "" {
		pe.Message = re.ErrorCode
	}
	return pe
}
