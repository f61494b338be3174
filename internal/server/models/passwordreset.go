package models

import "time"

// PasswordReset is a pending password reset. Only the sha256 of the emailed
// token is stored.
type PasswordReset struct {
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the reset is no longer usable at now.
func (r *PasswordReset) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
