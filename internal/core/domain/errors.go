package domain

import "errors"

var (
	// ErrMalformedCredential marks a bearer token whose role claim could not
	// be decoded. Callers must treat it exactly like a failed login.
	ErrMalformedCredential = errors.New("malformed credential")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("access forbidden")
)
