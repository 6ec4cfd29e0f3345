package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"auth-client/internal/audit"
	"auth-client/internal/auth"
	"auth-client/internal/auth/credentials"
	"auth-client/internal/auth/provider"
	"auth-client/internal/logger"
	"auth-client/internal/session"
)

// Backend is the first-party session API.
type Backend interface {
	ExchangeSessionToken(ctx context.Context, token auth.IDToken) error
	Logout(ctx context.Context) error
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
}

// Deps are the collaborators injected at construction.
type Deps struct {
	Provider  provider.IdentityProvider
	Backend   Backend
	Navigator Navigator
	Sessions  session.Store  // optional; defaults to a memory store
	Audit     audit.Recorder // optional; defaults to audit.Nop
}

type Options struct {
	Profile      string
	Routes       Routes
	SignupPolicy SignupPolicy
	SessionTTL   time.Duration
}

// Client turns form submissions into provider calls and session exchanges.
// Each call makes exactly one attempt; a submission that arrives while
// another is pending is rejected with auth.ErrSubmissionInFlight.
type Client struct {
	provider  provider.IdentityProvider
	backend   Backend
	navigator Navigator
	sessions  session.Store
	audit     audit.Recorder
	opts      Options
	now       func() time.Time

	inFlight    atomic.Bool
	unsubscribe func()
}

func New(deps Deps, opts Options) (*Client, error) {
	if deps.Provider == nil || deps.Backend == nil || deps.Navigator == nil {
		return nil, errors.New("bootstrap: provider, backend and navigator are required")
	}
	if opts.Routes.Login == "" || opts.Routes.Dashboard == "" {
		return nil, errors.New("bootstrap: login and dashboard routes are required")
	}

	switch opts.SignupPolicy {
	case "":
		opts.SignupPolicy = SignupLoginRedirect
	case SignupLoginRedirect, SignupAutoLogin:
	default:
		return nil, fmt.Errorf("bootstrap: unknown signup policy %q", opts.SignupPolicy)
	}
	if opts.Profile == "" {
		opts.Profile = "default"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewMemoryStore()
	}
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}

	c := &Client{
		provider:  deps.Provider,
		backend:   deps.Backend,
		navigator: deps.Navigator,
		sessions:  deps.Sessions,
		audit:     deps.Audit,
		opts:      opts,
		now:       time.Now,
	}
	c.unsubscribe = c.ObserveAuthState(logStateChange)
	return c, nil
}

// Close removes the client's own state listener.
func (c *Client) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// SubmitSignup validates locally, creates the account, then follows the
// configured SignupPolicy.
func (c *Client) SubmitSignup(ctx context.Context, email, password, confirm string) Outcome {
	if !c.enter() {
		return failure(auth.ErrSubmissionInFlight)
	}
	defer c.leave()

	creds := credentials.New(email, password, confirm)
	if err := creds.ValidateSignup(); err != nil {
		return failure(err)
	}

	user, err := c.provider.CreateAccount(ctx, creds.Email, creds.Password)
	if err != nil {
		c.remoteFailure(ctx, audit.ActionSignup, creds.Email, err)
		return failure(err)
	}
	c.record(ctx, audit.ActionSignup, creds.Email, audit.CodeOK, "")

	if c.opts.SignupPolicy == SignupLoginRedirect {
		c.navigator.Navigate(c.opts.Routes.Login)
		return Outcome{
			User:        user,
			Destination: c.opts.Routes.Login,
			Message:     success(msgSignupLoginStep),
		}
	}

	token, err := c.establish(ctx, user)
	if err != nil {
		out := failure(err)
		out.User = user
		return out
	}
	return Outcome{
		User:        user,
		Token:       token,
		Destination: c.opts.Routes.Dashboard,
		Message:     success(msgSignupAutoLogin),
	}
}

// SubmitLogin signs in, retrieves one identity token and exchanges it for a
// first-party session. Navigation to the dashboard happens only after the
// exchange succeeds.
func (c *Client) SubmitLogin(ctx context.Context, email, password string) Outcome {
	if !c.enter() {
		return failure(auth.ErrSubmissionInFlight)
	}
	defer c.leave()

	creds := credentials.New(email, password, "")
	if err := creds.ValidateLogin(); err != nil {
		return failure(err)
	}

	user, err := c.provider.SignIn(ctx, creds.Email, creds.Password)
	if err != nil {
		c.remoteFailure(ctx, audit.ActionLogin, creds.Email, err)
		return failure(err)
	}
	c.record(ctx, audit.ActionLogin, creds.Email, audit.CodeOK, "")

	token, err := c.establish(ctx, user)
	if err != nil {
		// The user stays signed in at the provider without a first-party
		// session; logging in again is the recovery path.
		out := failure(err)
		out.User = user
		return out
	}

	return Outcome{
		User:        user,
		Token:       token,
		Destination: c.opts.Routes.Dashboard,
		Message:     success(msgLoginSuccess),
	}
}

// ExchangeSessionToken posts token to the session endpoint once, persists
// the resulting cookies, and navigates to the dashboard. A non-2xx answer
// returns *auth.ExchangeError and does not navigate. It shares the in-flight
// gate with the form submissions.
func (c *Client) ExchangeSessionToken(ctx context.Context, token auth.IDToken) error {
	if !c.enter() {
		return auth.ErrSubmissionInFlight
	}
	defer c.leave()

	return c.exchange(ctx, token, nil)
}

// Logout signs out at the provider and then at the backend. Both are
// attempted; navigation to the login route happens only when both succeed.
// The provider sign-out is not rolled back when the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	if !c.enter() {
		return auth.ErrSubmissionInFlight
	}
	defer c.leave()

	rec, err := c.sessions.Get(ctx, c.opts.Profile)
	if err != nil {
		logger.Warn("failed to load persisted session", map[string]any{
			"profile": c.opts.Profile,
			"error":   err,
		})
	}
	if rec != nil {
		c.backend.SetCookies(rec.HTTPCookies())
	}

	providerErr := c.provider.SignOut(ctx)
	if providerErr != nil {
		logger.Error("provider sign-out failed", map[string]any{
			"code":  string(auth.CodeOf(providerErr)),
			"error": providerErr,
		})
	}

	backendErr := c.backend.Logout(ctx)
	if backendErr != nil {
		logger.Error("backend logout failed", map[string]any{
			"error": backendErr,
		})
	} else if err := c.sessions.Delete(ctx, c.opts.Profile); err != nil {
		logger.Warn("failed to delete persisted session", map[string]any{
			"profile": c.opts.Profile,
			"error":   err,
		})
	}

	email := ""
	if rec != nil {
		email = rec.Email
	}

	if err := errors.Join(providerErr, backendErr); err != nil {
		c.record(ctx, audit.ActionLogout, email, eventCode(err), auth.Message(err))
		return err
	}

	c.record(ctx, audit.ActionLogout, email, audit.CodeOK, "")
	c.navigator.Navigate(c.opts.Routes.Login)
	return nil
}

// LogoutMessage is the display text for a Logout result.
func LogoutMessage(err error) Message {
	if err != nil {
		return Message{Text: auth.Message(err), IsError: true}
	}
	return success(msgLogoutSuccess)
}

// ObserveAuthState registers fn for provider sign-in state changes.
func (c *Client) ObserveAuthState(fn func(provider.StateChange)) (unsubscribe func()) {
	return c.provider.OnAuthStateChanged(fn)
}

func (c *Client) enter() bool { return c.inFlight.CompareAndSwap(false, true) }

func (c *Client) leave() { c.inFlight.Store(false) }

func (c *Client) establish(ctx context.Context, user *auth.User) (auth.IDToken, error) {
	token, err := c.provider.IDToken(ctx, user)
	if err != nil {
		c.remoteFailure(ctx, audit.ActionExchange, user.Email, err)
		return "", err
	}
	if err := c.exchange(ctx, token, user); err != nil {
		return "", err
	}
	return token, nil
}

func (c *Client) exchange(ctx context.Context, token auth.IDToken, user *auth.User) error {
	var email, uid string
	if user != nil {
		email, uid = user.Email, user.UID
	}

	fields := map[string]any{"profile": c.opts.Profile}
	if claims, err := auth.ParseClaims(token); err == nil {
		fields["subject"] = claims.Subject
		fields["expiry_unix"] = claims.ExpiresAt.Unix()
		if uid == "" {
			uid = claims.Subject
		}
		if email == "" {
			email = claims.Email
		}
		if claims.Expired(c.now()) {
			logger.Warn("exchanging an expired identity token", fields)
		}
	}
	logger.Debug("exchanging identity token", fields)

	if err := c.backend.ExchangeSessionToken(ctx, token); err != nil {
		c.remoteFailure(ctx, audit.ActionExchange, email, err)
		return err
	}
	c.record(ctx, audit.ActionExchange, email, audit.CodeOK, "")

	cookies := c.backend.Cookies()
	if _, ok := session.SessionCookie(cookies); !ok {
		logger.Warn("session endpoint succeeded without setting a session cookie", fields)
	}
	c.persist(ctx, uid, email, cookies)

	c.navigator.Navigate(c.opts.Routes.Dashboard)
	return nil
}

func (c *Client) persist(ctx context.Context, uid, email string, cookies []*http.Cookie) {
	if uid == "" {
		uid = "unknown"
	}
	now := c.now()
	err := c.sessions.Save(ctx, session.Record{
		Profile:   c.opts.Profile,
		UserID:    uid,
		Email:     email,
		Cookies:   session.FromHTTP(cookies),
		CreatedAt: now,
		ExpiresAt: now.Add(c.opts.SessionTTL),
	})
	if err != nil {
		logger.Warn("failed to persist session", map[string]any{
			"profile": c.opts.Profile,
			"error":   err,
		})
	}
}

func (c *Client) remoteFailure(ctx context.Context, action audit.Action, email string, err error) {
	logger.Warn("remote auth step failed", map[string]any{
		"action": string(action),
		"email":  email,
		"code":   string(auth.CodeOf(err)),
		"error":  err,
	})
	c.record(ctx, action, email, eventCode(err), auth.Message(err))
}

func (c *Client) record(ctx context.Context, action audit.Action, email, code, message string) {
	err := c.audit.Record(ctx, audit.Event{
		Action:  action,
		Email:   email,
		Code:    code,
		Message: message,
		At:      c.now(),
	})
	if err != nil {
		logger.Warn("failed to record audit event", map[string]any{
			"action": string(action),
			"error":  err,
		})
	}
}

func eventCode(err error) string {
	var ee *auth.ExchangeError
	if errors.As(err, &ee) {
		return "http-" + strconv.Itoa(ee.Status)
	}
	var le *auth.LogoutError
	if errors.As(err, &le) {
		return "http-" + strconv.Itoa(le.Status)
	}
	return string(auth.CodeOf(err))
}

func logStateChange(change provider.StateChange) {
	fields := map[string]any{"state": string(change.Kind)}
	if change.User != nil {
		fields["uid"] = change.User.UID
	}
	logger.Debug("auth state changed", fields)
}
