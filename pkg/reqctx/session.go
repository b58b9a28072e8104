package reqctx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated caller of a request. It is built by the auth
// middleware from a verified access token and the matching server-side
// session record, and passed down explicitly through the context.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Role      string
	ExpiresAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, keySession, s)
}

// SessionFromContext returns nil, false for anonymous requests.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(keySession).(*Session)
	return s, ok && s != nil
}

// UserIDFromContext returns uuid.Nil, false for anonymous requests.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return s.UserID, true
}
