package session

import (
	"fmt"
	"time"
)

func validate(r Record, now time.Time) error {
	if r.Profile == "" || r.UserID == "" {
		return fmt.Errorf("session: missing profile or user_id")
	}
	if !r.ExpiresAt.After(now) {
		return fmt.Errorf("session: expires_at must be in the future")
	}
	return nil
}
