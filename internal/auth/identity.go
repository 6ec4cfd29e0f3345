package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the provider-side account a successful sign-in or sign-up
// returns. It contains facts only; the provider owns the record.
type User struct {
	Provider string // e.g. "identitytoolkit", "keycloak"
	UID      string // provider-scoped unique user identifier
	Email    string
}

// IDToken is the opaque bearer credential issued by the identity provider.
// It is only ever sent to the session endpoint.
type IDToken string

// Claims are the diagnostic facts read from an IDToken.
type Claims struct {
	Subject   string
	Email     string
	Issuer    string
	ExpiresAt time.Time
}

// Expired reports whether the token expiry is known and before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type idTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the token's JWT payload WITHOUT verifying the
// signature. Verification belongs to the backend; callers use the result
// for logging and expiry bookkeeping only.
func ParseClaims(token IDToken) (Claims, error) {
	if token == "" {
		return Claims{}, errors.New("auth: empty id token")
	}

	var claims idTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(string(token), &claims); err != nil {
		return Claims{}, fmt.Errorf("auth: decode id token: %w", err)
	}

	out := Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
