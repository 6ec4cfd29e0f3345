package auth

import "errors"

const (
	MsgMissingCredentials = "Please enter both email and password."
	MsgPasswordMismatch   = "Passwords do not match."
	MsgInFlight           = "A request is already in progress."
	MsgNoCurrentUser      = "You are not signed in."

	MsgInvalidCredentials  = "Invalid email or password."
	MsgEmailInUse          = "This email is already in use."
	MsgInvalidEmail        = "The email address is not valid."
	MsgWeakPassword        = "Password is too weak (minimum length requirement)."
	MsgOperationNotAllowed = "Email/password sign-in is disabled for this deployment."
	MsgUserDisabled        = "This account has been disabled."

	MsgExchangeFailed = "Failed to authenticate session."
	MsgLogoutFailed   = "Failed to log out."

	fallbackPrefix = "Something went wrong: "
)

var providerMessages = map[Code]string{
	CodeWrongPassword:       MsgInvalidCredentials,
	CodeUserNotFound:        MsgInvalidCredentials,
	CodeInvalidCredential:   MsgInvalidCredentials,
	CodeEmailAlreadyInUse:   MsgEmailInUse,
	CodeInvalidEmail:        MsgInvalidEmail,
	CodeWeakPassword:        MsgWeakPassword,
	CodeOperationNotAllowed: MsgOperationNotAllowed,
	CodeUserDisabled:        MsgUserDisabled,
}

// Message maps any error the client can produce to the text shown to the
// user. Codes outside the table fall back to a generic message that keeps
// the raw provider text.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials):
		return MsgMissingCredentials
	case errors.Is(err, ErrPasswordMismatch):
		return MsgPasswordMismatch
	case errors.Is(err, ErrSubmissionInFlight):
		return MsgInFlight
	case errors.Is(err, ErrNoCurrentUser):
		return MsgNoCurrentUser
	}

	var ee *ExchangeError
	if errors.As(err, &ee) {
		if ee.Message != "" {
			return ee.Message
		}
		return MsgExchangeFailed
	}

	var le *LogoutError
	if errors.As(err, &le) {
		if le.Message != "" {
			return le.Message
		}
		return MsgLogoutFailed
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if msg, ok := providerMessages[pe.Code]; ok {
			return msg
		}
		raw := pe.Message
		if raw == "" {
			raw = string(pe.Code)
		}
		return fallbackPrefix + raw
	}

	return fallbackPrefix + err.Error()
}
