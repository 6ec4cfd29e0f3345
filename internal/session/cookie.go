package session

import "net/http"

// CookieName is the first-party session cookie the backend issues.
const CookieName = "session"

// SessionCookie returns the session cookie among cookies, if any.
func SessionCookie(cookies []*http.Cookie) (*http.Cookie, bool) {
	for _, c := range cookies {
		if c.Name == CookieName && c.Value != "" {
			return c, true
		}
	}
	return nil, false
}
