package session

import (
	"context"
	"net/http"
	"time"
)

// Record is a first-party session established by a successful token
// exchange, kept so a later process can present it again (e.g. on logout).
// It stores cookies only, never the identity token.
type Record struct {
	Profile   string    `json:"profile"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Cookies   []Cookie  `json:"cookies"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Cookie is the name/value pair a cookie jar reports for an origin.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FromHTTP copies jar cookies into a record.
func FromHTTP(cookies []*http.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// HTTPCookies rebuilds jar cookies scoped to the whole origin.
func (r Record) HTTPCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(r.Cookies))
	for _, c := range r.Cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return out
}

// Expired reports whether the record is past its expiry.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Store persists session records keyed by profile.
// Get returns (nil, nil) when no live record exists.
type Store interface {
	Save(ctx context.Context, r Record) error
	Get(ctx context.Context, profile string) (*Record, error)
	Delete(ctx context.Context, profile string) error
}
