package sessiontest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"auth-client/internal/auth"
	"auth-client/internal/auth/credentials"
	"auth-client/internal/auth/provider"
)

// SigningKey signs the fake provider's identity tokens. Backend verifies
// with the same key.
var SigningKey = []byte("sessiontest-signing-key")

const Issuer = "https://identity.sessiontest.local"

type account struct {
	uid      string
	hash     string
	disabled bool
}

// Provider is an in-memory provider.IdentityProvider with bcrypt-hashed
// accounts and HS256-signed identity tokens.
type Provider struct {
	// Err* force the matching operation to fail when set.
	CreateErr  error
	SignInErr  error
	SignOutErr error
	TokenErr   error

	// SignupDisabled makes CreateAccount report operation-not-allowed.
	SignupDisabled bool

	// TokenTTL defaults to one hour.
	TokenTTL time.Duration

	CreateCalls  atomic.Int32
	SignInCalls  atomic.Int32
	SignOutCalls atomic.Int32
	TokenCalls   atomic.Int32

	notifier provider.Notifier

	mu       sync.Mutex
	accounts map[string]*account
	current  *auth.User

	// gate, when set, blocks SignIn until it is closed.
	gate chan struct{}
}

var _ provider.IdentityProvider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{accounts: make(map[string]*account)}
}

func (p *Provider) Name() string { return "sessiontest" }

// AddAccount seeds an account and returns its uid.
func (p *Provider) AddAccount(email, password string) string {
	hash, err := credentials.HashPassword(password)
	if err != nil {
		panic(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	uid := uuid.NewString()
	p.accounts[email] = &account{uid: uid, hash: hash}
	return uid
}

// Disable marks the account as disabled.
func (p *Provider) Disable(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.accounts[email]; ok {
		a.disabled = true
	}
}

// Block makes SignIn wait until the returned func is called.
func (p *Provider) Block() (release func()) {
	ch := make(chan struct{})
	p.mu.Lock()
	p.gate = ch
	p.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls is the total number of provider operations invoked.
func (p *Provider) Calls() int {
	return int(p.CreateCalls.Load() + p.SignInCalls.Load() + p.SignOutCalls.Load() + p.TokenCalls.Load())
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*auth.User, error) {
	p.CreateCalls.Add(1)
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	if p.SignupDisabled {
		return nil, auth.NewProviderError(auth.CodeOperationNotAllowed, "OPERATION_NOT_ALLOWED")
	}

	p.mu.Lock()
	_, exists := p.accounts[email]
	p.mu.Unlock()
	if exists {
		return nil, auth.NewProviderError(auth.CodeEmailAlreadyInUse, "EMAIL_EXISTS")
	}

	hash, err := credentials.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &auth.User{Provider: p.Name(), UID: uuid.NewString(), Email: email}
	p.mu.Lock()
	p.accounts[email] = &account{uid: u.UID, hash: hash}
	p.current = u
	p.mu.Unlock()

	p.notifier.Notify(provider.StateChange{Kind: provider.StateSignedIn, User: u})
	return u, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*auth.User, error) {
	p.SignInCalls.Add(1)

	p.mu.Lock()
	gate := p.gate
	p.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if p.SignInErr != nil {
		return nil, p.SignInErr
	}

	p.mu.Lock()
	a, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		return nil, auth.NewProviderError(auth.CodeUserNotFound, "EMAIL_NOT_FOUND")
	}
	if err := credentials.VerifyPassword(a.hash, password); err != nil {
		return nil, auth.NewProviderError(auth.CodeWrongPassword, "INVALID_PASSWORD")
	}
	if a.disabled {
		return nil, auth.NewProviderError(auth.CodeUserDisabled, "USER_DISABLED")
	}

	u := &auth.User{Provider: p.Name(), UID: a.uid, Email: email}
	p.mu.Lock()
	p.current = u
	p.mu.Unlock()

	p.notifier.Notify(provider.StateChange{Kind: provider.StateSignedIn, User: u})
	return u, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.SignOutCalls.Add(1)
	if p.SignOutErr != nil {
		return p.SignOutErr
	}
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	p.notifier.Notify(provider.StateChange{Kind: provider.StateSignedOut})
	return nil
}

func (p *Provider) IDToken(ctx context.Context, user *auth.User) (auth.IDToken, error) {
	p.TokenCalls.Add(1)
	if p.TokenErr != nil {
		return "", p.TokenErr
	}

	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	if cur == nil || user == nil || cur.UID != user.UID {
		return "", auth.ErrNoCurrentUser
	}

	return MintToken(cur.UID, cur.Email, p.ttl())
}

func (p *Provider) OnAuthStateChanged(fn func(provider.StateChange)) func() {
	return p.notifier.Subscribe(fn)
}

func (p *Provider) ttl() time.Duration {
	if p.TokenTTL > 0 {
		return p.TokenTTL
	}
	return time.Hour
}

// MintToken signs an identity token the fake backend accepts.
func MintToken(uid, email string, ttl time.Duration) (auth.IDToken, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   Issuer,
		"sub":   uid,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	raw, err := tok.SignedString(SigningKey)
	if err != nil {
		return "", err
	}
	return auth.IDToken(raw), nil
}
