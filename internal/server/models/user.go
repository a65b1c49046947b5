package models

import "time"

// User is a registered account. PasswordHash is nil for accounts that were
// created without a password and therefore cannot log in with one.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash *string
	CreatedAt    time.Time
}
