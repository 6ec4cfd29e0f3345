package identitytoolkit

import (
	"strings"

	"auth-client/internal/auth"
)

var nativeCodes = map[string]auth.Code{
	"EMAIL_EXISTS":              auth.CodeEmailAlreadyInUse,
	"EMAIL_NOT_FOUND":           auth.CodeUserNotFound,
	"INVALID_PASSWORD":          auth.CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS": auth.CodeInvalidCredential,
	"INVALID_EMAIL":             auth.CodeInvalidEmail,
	"WEAK_PASSWORD":             auth.CodeWeakPassword,
	"OPERATION_NOT_ALLOWED":     auth.CodeOperationNotAllowed,
	"PASSWORD_LOGIN_DISABLED":   auth.CodeOperationNotAllowed,
	"USER_DISABLED":             auth.CodeUserDisabled,
}

// translate turns a REST error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters" into a
// provider error. Unknown codes are kebab-cased and keep the raw text.
func translate(message string) *auth.ProviderError {
	native, _, _ := strings.Cut(message, " : ")
	native = strings.TrimSpace(native)

	if code, ok := nativeCodes[native]; ok {
		return auth.NewProviderError(code, message)
	}

	code := strings.ToLower(strings.ReplaceAll(native, "_", "-"))
	if code == "" {
		code = string(auth.CodeUnknown)
	}
	return auth.NewProviderError(auth.Code(code), message)
}
