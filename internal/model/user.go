package model

import "time"

// UserID uniquely identifies an account across the system
type UserID string

// User is the minimal session record kept in memory while authenticated.
// It carries just enough to unblock the UI before the profile loads.
type User struct {
	ID    UserID `json:"id"`
	Email string `json:"email"`
}

// Session represents an authenticated session issued by the identity provider
type Session struct {
	Token     string
	UserID    UserID
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Account holds the credential record for a registered identity
// Stored separately from the profile (password hash never travels with profile reads)
type Account struct {
	UserID       UserID
	Email        string // login email (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
