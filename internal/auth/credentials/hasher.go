package credentials

import (
	"golang.org/x/crypto/bcrypt"

	"auth-client/internal/auth"
)

// MinPasswordLength mirrors the hosted provider's policy.
const MinPasswordLength = 6

// HashPassword hashes a plaintext password using bcrypt. Passwords shorter
// than MinPasswordLength are rejected with a weak-password provider error.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", auth.NewProviderError(
			auth.CodeWeakPassword,
			"WEAK_PASSWORD : Password should be at least 6 characters",
		)
	}

	bytes, err := bcrypt.GenerateFromPassword(
		[]byte(password),
		bcrypt.MinCost,
	)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// VerifyPassword compares plaintext password with stored hash.
func VerifyPassword(hash string, password string) error {
	return bcrypt.CompareHashAndPassword(
		[]byte(hash),
		[]byte(password),
	)
}
