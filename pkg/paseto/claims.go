package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Subject identifies whom a token is issued to.
type Subject struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      string
}

// Claims is the app-facing token payload.
type Claims struct {
	Type TokenType

	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      string

	Issuer    string
	Audience  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string // jti
}

func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
