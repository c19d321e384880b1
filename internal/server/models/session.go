package models

import "time"

// Session is a server-side login. ExpiresAt slides forward on activity.
type Session struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time, maxLifetime time.Duration) bool {
	if !now.Before(s.ExpiresAt) {
		return true
	}
	return maxLifetime > 0 && !now.Before(s.CreatedAt.Add(maxLifetime))
}
