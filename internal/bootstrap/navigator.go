package bootstrap

// Navigator moves the user to a configured route. The browser version
// assigns window.location; other front ends report or open the route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a func to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Routes are the configured navigation targets.
type Routes struct {
	Login     string
	Signup    string
	Dashboard string
}

// SignupPolicy decides what a successful signup does. A deployment uses
// exactly one.
type SignupPolicy string

const (
	// SignupLoginRedirect sends the user to the login route.
	SignupLoginRedirect SignupPolicy = "login-redirect"
	// SignupAutoLogin exchanges the new account's token immediately.
	SignupAutoLogin SignupPolicy = "auto-login"
)
