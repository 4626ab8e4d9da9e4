package auth

import "time"

// Account carries the credential fields of a user row.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
