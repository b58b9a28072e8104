package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fieldz/fieldz_backend/internal/repo"
	pasetotoken "github.com/fieldz/fieldz_backend/pkg/paseto"
	"github.com/fieldz/fieldz_backend/pkg/reqctx"
	"github.com/fieldz/fieldz_backend/pkg/util/password"
)

const minPasswordLength = 8

var validate = validator.New()

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Email    string
	Password string
	FullName string
	Role     string // player or club
}

type LoginRequest struct {
	Email    string
	Password string
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until access token expires
	UserID       uuid.UUID
	Role         string
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*repo.User, error)
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error

	// Authenticate turns an access token into the caller's session. The
	// session must still exist server side.
	Authenticate(ctx context.Context, accessToken string) (*reqctx.Session, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	db       *repo.Client
	sessions SessionStore
	paseto   *pasetotoken.Manager
	hasher   *password.Hasher
}

func New(db *repo.Client, sessions SessionStore, paseto *pasetotoken.Manager, hasher *password.Hasher) Service {
	return &authService{
		db:       db,
		sessions: sessions,
		paseto:   paseto,
		hasher:   hasher,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*repo.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	switch req.Role {
	case repo.RolePlayer, repo.RoleClub:
	default:
		return nil, ErrInvalidRole
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.db.User.Create(ctx, &repo.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
	})
	if err != nil {
		if repo.IsConstraintError(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	u, err := s.db.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Verify(u.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			slog.WarnContext(ctx, "auth: stored password hash is unreadable", "user_id", u.ID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		if hash, err := s.hasher.Hash(req.Password); err == nil {
			if err := s.db.User.SetPasswordHash(ctx, u.ID, hash); err != nil {
				slog.WarnContext(ctx, "auth: rehash password", "user_id", u.ID, "error", err)
			}
		}
	}

	return s.createSession(ctx, u)
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}
	if err := s.sessions.Touch(ctx, sess.ID, s.paseto.RefreshTTL()); err != nil {
		return nil, err
	}

	// Only the access token is reissued; the refresh token stays valid until
	// logout.
	access, err := s.paseto.IssueAccess(pasetotoken.Subject{UserID: sess.UserID, SessionID: sess.ID, Role: sess.Role})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
		UserID:       sess.UserID,
		Role:         sess.Role,
	}, nil
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		// Session already expired, not an error from the client's perspective
		slog.DebugContext(ctx, "logout: session not found (already expired)", "session_id", sessionID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*reqctx.Session, error) {
	claims, err := s.paseto.VerifyAccess(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}
	sess.ExpiresAt = claims.ExpiresAt
	return sess, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) createSession(ctx context.Context, u *repo.User) (*AuthTokens, error) {
	sess := &reqctx.Session{ID: uuid.Must(uuid.NewV7()), UserID: u.ID, Role: u.Role}
	if err := s.sessions.Save(ctx, sess, s.paseto.RefreshTTL()); err != nil {
		return nil, err
	}

	sub := pasetotoken.Subject{UserID: u.ID, SessionID: sess.ID, Role: u.Role}
	access, err := s.paseto.IssueAccess(sub)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.paseto.IssueRefresh(sub)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	slog.InfoContext(ctx, "auth: session created", "user_id", u.ID, "session_id", sess.ID, "role", u.Role)
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
		UserID:       u.ID,
		Role:         u.Role,
	}, nil
}
