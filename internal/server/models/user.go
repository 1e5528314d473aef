// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered identity. Enabled stays false until the account is
// verified through the e-mailed token.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Email        string
	CreatedAt    time.Time
	Enabled      bool
}
