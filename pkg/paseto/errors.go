package pasetotoken

import (
	"errors"
	"fmt"
)

var (
	// ErrExpired is wrapped in ErrInvalidToken once exp has passed. A client
	// holding a refresh token can recover without logging in again.
	ErrExpired = errors.New("token expired")

	// ErrWrongType is wrapped in ErrInvalidToken when a refresh token is
	// presented as an access token, or the other way round.
	ErrWrongType = errors.New("wrong token type")
)

// ErrConfig reports a bad authentication.paseto setting. Key names the
// offending config key and is empty for wiring mistakes.
type ErrConfig struct {
	Key string
	Msg string
}

func (e ErrConfig) Error() string {
	if e.Key == "" {
		return "paseto: " + e.Msg
	}
	return fmt.Sprintf("authentication.paseto.%s: %s", e.Key, e.Msg)
}

type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return "invalid token: " + e.Err.Error() }
func (e ErrInvalidToken) Unwrap() error { return e.Err }
