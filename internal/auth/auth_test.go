package auth

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageTable(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeWrongPassword, "Invalid email or password."},
		{CodeUserNotFound, "Invalid email or password."},
		{CodeInvalidCredential, "Invalid email or password."},
		{CodeEmailAlreadyInUse, "This email is already in use."},
		{CodeInvalidEmail, "The email address is not valid."},
		{CodeWeakPassword, "Password is too weak (minimum length requirement)."},
		{CodeOperationNotAllowed, "Email/password sign-in is disabled for this deployment."},
		{CodeUserDisabled, "This account has been disabled."},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := fmt.Errorf("sign in: %w", NewProviderError(tt.code, "raw text"))
			assert.Equal(t, tt.want, Message(err))
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestMessageFallbackKeepsRawText(t *testing.T) {
	err := NewProviderError(Code("too-many-requests"), "TOO_MANY_ATTEMPTS_TRY_LATER")
	msg := Message(err)
	assert.True(t, strings.HasPrefix(msg, "Something went wrong: "))
	assert.Contains(t, msg, "TOO_MANY_ATTEMPTS_TRY_LATER")

	assert.Equal(t, "Something went wrong: network down", Message(errors.New("network down")))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("network down")))
}

func TestMessageLocalAndBackendErrors(t *testing.T) {
	assert.Equal(t, "Passwords do not match.", Message(ErrPasswordMismatch))
	assert.Equal(t, "Please enter both email and password.", Message(ErrMissingCredentials))
	assert.Equal(t, "token revoked", Message(&ExchangeError{Status: 401, Message: "token revoked"}))
	assert.Equal(t, MsgExchangeFailed, Message(&ExchangeError{Status: 502}))
	assert.Equal(t, MsgLogoutFailed, Message(&LogoutError{Status: 500}))
	assert.Empty(t, Message(nil))
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "uid-1",
		"email": "a@example.com",
		"iss":   "https://issuer.test",
		"exp":   exp.Unix(),
	})
	raw, err := tok.SignedString([]byte("any-key"))
	require.NoError(t, err)

	claims, err := ParseClaims(IDToken(raw))
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "https://issuer.test", claims.Issuer)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Second)))

	_, err = ParseClaims("tok-123")
	assert.Error(t, err)
	_, err = ParseClaims("")
	assert.Error(t, err)
}
