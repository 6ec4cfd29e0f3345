package credentials

import (
	"strings"

	"auth-client/internal/auth"
)

// Credentials is the email/password pair captured from one form submission.
// It lives only for the duration of that submission and is never stored.
type Credentials struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// New trims the email; passwords are taken verbatim.
func New(email, password, confirm string) Credentials {
	return Credentials{
		Email:           strings.TrimSpace(email),
		Password:        password,
		ConfirmPassword: confirm,
	}
}

// ValidateLogin requires both fields.
func (c Credentials) ValidateLogin() error {
	if c.Email == "" || c.Password == "" {
		return auth.ErrMissingCredentials
	}
	return nil
}

// ValidateSignup requires every field and a matching confirmation.
func (c Credentials) ValidateSignup() error {
	if c.Email == "" || c.Password == "" || c.ConfirmPassword == "" {
		return auth.ErrMissingCredentials
	}
	if c.Password != c.ConfirmPassword {
		return auth.ErrPasswordMismatch
	}
	return nil
}

// String never prints the password.
func (c Credentials) String() string {
	return "Credentials{Email: " + c.Email + "}"
}
