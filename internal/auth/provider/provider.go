package provider

import (
	"context"

	"auth-client/internal/auth"
)

// IdentityProvider is the capability set the client consumes from a hosted
// identity service. Implementations report failures as *auth.ProviderError
// with a code from the closed auth.Code set and never create first-party
// sessions themselves.
type IdentityProvider interface {
	// Name returns the provider identifier (e.g. "identitytoolkit").
	Name() string

	// CreateAccount registers a new email/password account. On success the
	// new user is also the provider's current user.
	CreateAccount(ctx context.Context, email, password string) (*auth.User, error)

	// SignIn authenticates an existing account and makes it current.
	SignIn(ctx context.Context, email, password string) (*auth.User, error)

	// SignOut drops the provider's local sign-in state.
	SignOut(ctx context.Context) error

	// IDToken returns a valid identity token for user, refreshing it when
	// the cached one has expired.
	IDToken(ctx context.Context, user *auth.User) (auth.IDToken, error)

	// OnAuthStateChanged registers fn for sign-in, sign-out and token
	// refresh events. The returned func removes the listener.
	OnAuthStateChanged(fn func(StateChange)) (unsubscribe func())
}
