package model

import "errors"

// Common errors used across the application
var (
	// Credential errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")

	// Session errors
	ErrNoSession      = errors.New("no active session")
	ErrInvalidSession = errors.New("invalid or expired session")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)
