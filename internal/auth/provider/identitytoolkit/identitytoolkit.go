package identitytoolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"auth-client/internal/auth"
	"auth-client/internal/auth/provider"
	"auth-client/internal/logger"
)

const providerName = "identitytoolkit"

// refreshSkew renews tokens slightly before their advertised expiry.
const refreshSkew = 30 * time.Second

// Config holds the provider-assigned identifiers. They are opaque to the
// client and only forwarded to the service.
type Config struct {
	APIKey     string
	BaseURL    string // e.g. https://identitytoolkit.googleapis.com
	RefreshURL string // e.g. https://securetoken.googleapis.com/v1/token
	HTTPClient *http.Client
}

// Provider talks to a Firebase-compatible Identity Toolkit REST API.
// It keeps the signed-in user of this process in memory.
type Provider struct {
	cfg      Config
	client   *http.Client
	notifier provider.Notifier
	now      func() time.Time

	mu      sync.Mutex
	current *signedIn
}

type signedIn struct {
	user         auth.User
	idToken      auth.IDToken
	refreshToken string
	expiresAt    time.Time
}

var _ provider.IdentityProvider = (*Provider)(nil)

func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" || cfg.BaseURL == "" || cfg.RefreshURL == "" {
		return nil, errors.New("identitytoolkit config missing required fields")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Provider{
		cfg:    cfg,
		client: client,
		now:    time.Now,
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*auth.User, error) {
	return p.passwordCall(ctx, "accounts:signUp", email, password)
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*auth.User, error) {
	return p.passwordCall(ctx, "accounts:signInWithPassword", email, password)
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	had := p.current != nil
	p.current = nil
	p.mu.Unlock()

	if had {
		p.notifier.Notify(provider.StateChange{Kind: provider.StateSignedOut})
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

	if p.now().Add(refreshSkew).Before(cur.expiresAt) {
		return cur.idToken, nil
	}

	refreshed, err := p.refresh(ctx, cur)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	if p.current != nil && p.current.user.UID == refreshed.user.UID {
		p.current = refreshed
	}
	p.mu.Unlock()

	u := refreshed.user
	p.notifier.Notify(provider.StateChange{Kind: provider.StateTokenRefreshed, User: &u})

	return refreshed.idToken, nil
}

func (p *Provider) OnAuthStateChanged(fn func(provider.StateChange)) func() {
	return p.notifier.Subscribe(fn)
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) passwordCall(ctx context.Context, method, email, password string) (*auth.User, error) {
	body, err := json.Marshal(passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/" + method + "?key=" + p.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error.Message == "" {
			return nil, auth.NewProviderError(auth.CodeUnknown, resp.Status)
		}
		return nil, translate(er.Error.Message)
	}

	var out passwordResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("identitytoolkit %s: decode response: %w", method, err)
	}
	if out.IDToken == "" || out.LocalID == "" {
		return nil, fmt.Errorf("identitytoolkit %s: response missing idToken or localId", method)
	}

	s := &signedIn{
		user: auth.User{
			Provider: providerName,
			UID:      out.LocalID,
			Email:    out.Email,
		},
		idToken:      auth.IDToken(out.IDToken),
		refreshToken: out.RefreshToken,
		expiresAt:    p.now().Add(parseExpiresIn(out.ExpiresIn)),
	}

	p.mu.Lock()
	p.current = s
	p.mu.Unlock()

	logger.Debug("identitytoolkit sign-in state updated", map[string]any{
		"method":      method,
		"uid":         s.user.UID,
		"expiry_unix": s.expiresAt.Unix(),
	})

	u := s.user
	p.notifier.Notify(provider.StateChange{Kind: provider.StateSignedIn, User: &u})

	return &u, nil
}

// refresh exchanges the refresh token at the secure token endpoint, which
// speaks the OAuth2 refresh_token grant.
func (p *Provider) refresh(ctx context.Context, cur *signedIn) (*signedIn, error) {
	if cur.refreshToken == "" {
		return nil, auth.NewProviderError(auth.CodeUnknown, "TOKEN_EXPIRED")
	}

	oauthCfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.cfg.RefreshURL + "?key=" + p.cfg.APIKey,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := oauthCfg.TokenSource(ctx, &oauth2.Token{
		RefreshToken: cur.refreshToken,
	}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			if msg := refreshErrorMessage(re); msg != "" {
				pe := translate(msg)
				pe.Err = err
				return nil, pe
			}
		}
		return nil, fmt.Errorf("identitytoolkit token refresh failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("identitytoolkit did not return id_token")
	}

	next := &signedIn{
		user:         cur.user,
		idToken:      auth.IDToken(rawIDToken),
		refreshToken: token.RefreshToken,
		expiresAt:    token.Expiry,
	}
	if next.refreshToken == "" {
		next.refreshToken = cur.refreshToken
	}
	if next.expiresAt.IsZero() {
		next.expiresAt = p.now().Add(time.Hour)
	}
	return next, nil
}

// refreshErrorMessage reads the native code from a secure token error. The
// endpoint nests it as {"error":{"message":"TOKEN_EXPIRED"}}, which x/oauth2
// cannot map to ErrorCode, so the raw body is decoded first.
func refreshErrorMessage(re *oauth2.RetrieveError) string {
	var er errorResponse
	if err := json.Unmarshal(re.Body, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return strings.ToUpper(re.ErrorCode)
}

func parseExpiresIn(s string) time.Duration {
	secs, err := strconv.Atoi(s)
	if err != nil || secs <= 0 {
		return time.Hour
	}
	return time.Duration(secs) * time.Second
}
