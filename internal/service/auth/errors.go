package auth

import "errors"

var (
	ErrEmailAlreadyExists = errors.New("email address is already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidRole        = errors.New("role must be player or club")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
