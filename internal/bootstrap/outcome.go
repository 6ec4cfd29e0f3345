package bootstrap

import (
	"auth-client/internal/auth"
)

// Message is the text the form shows after an attempt.
type Message struct {
	Text    string
	IsError bool
}

const (
	msgLoginSuccess    = "Login successful! Redirecting to dashboard..."
	msgSignupLoginStep = "Signup successful! Redirecting to login page..."
	msgSignupAutoLogin = "Signup successful! Redirecting to dashboard..."
	msgLogoutSuccess   = "You have been logged out."
)

// Outcome is the result of one submission. Err is nil on success; on
// failure auth.CodeOf(Err) gives the provider code when there is one.
type Outcome struct {
	User        *auth.User
	Token       auth.IDToken
	Destination string
	Message     Message
	Err         error
}

// OK reports whether the attempt succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Code is the provider error code of a failed outcome.
func (o Outcome) Code() auth.Code {
	if o.Err == nil {
		return ""
	}
	return auth.CodeOf(o.Err)
}

func failure(err error) Outcome {
	return Outcome{
		Err:     err,
		Message: Message{Text: auth.Message(err), IsError: true},
	}
}

func success(text string) Message {
	return Message{Text: text}
}
