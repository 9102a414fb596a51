package domain

import "time"

// AdminUser is the identity reported by the auth subsystem.
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AdminSession is the authenticated admin state. It mirrors whatever the auth
// subsystem returned at sign-in and is never persisted beyond the session store.
type AdminSession struct {
	ID           string    `json:"id"`
	User         AdminUser `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s AdminSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
