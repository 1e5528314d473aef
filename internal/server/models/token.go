package models

import "time"

// RefreshToken is an opaque, long-lived value exchanged for access tokens.
// It is bound to the username it was issued for and never expires on its own.
type RefreshToken struct {
	ID        string
	Token     string
	UserName  string
	CreatedAt time.Time
}

// VerificationToken activates the account referenced by UserID.
type VerificationToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (v *VerificationToken) Expired(now time.Time) bool {
	return !v.ExpiresAt.IsZero() && !now.Before(v.ExpiresAt)
}
