package auth

import (
	"errors"
	"fmt"
)

// Code is the closed set of provider error codes the client understands.
// Providers translate their native codes into one of these.
type Code string

const (
	CodeWrongPassword       Code = "wrong-password"
	CodeUserNotFound        Code = "user-not-found"
	CodeInvalidCredential   Code = "invalid-credential"
	CodeEmailAlreadyInUse   Code = "email-already-in-use"
	CodeInvalidEmail        Code = "invalid-email"
	CodeWeakPassword        Code = "weak-password"
	CodeOperationNotAllowed Code = "operation-not-allowed"
	CodeUserDisabled        Code = "user-disabled"
	CodeUnknown             Code = "unknown"
)

// Local validation failures. These never reach a remote collaborator.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrNoCurrentUser      = errors.New("no signed-in user")
)

// ProviderError is a failure reported by the identity provider.
type ProviderError struct {
	Code    Code
	Message string // raw provider text, shown only in the fallback message
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity provider: %s", e.Code)
	}
	return fmt.Sprintf("identity provider: %s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError is a shorthand used by provider implementations.
func NewProviderError(code Code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

// CodeOf extracts the provider code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeUnknown
}

// ExchangeError is a non-2xx answer from the session endpoint.
type ExchangeError struct {
	Status  int
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("session exchange failed (%d): %s", e.Status, e.Message)
}

// LogoutError is a non-2xx answer from the backend logout endpoint.
type LogoutError struct {
	Status  int
	Message string
}

func (e *LogoutError) Error() string {
	return fmt.Sprintf("logout failed (%d): %s", e.Status, e.Message)
}
