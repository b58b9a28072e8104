package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/pkg/util/password"
)

// MinPasswordLength applies to every password set through the API.
const MinPasswordLength = 8

type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repo.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
}

type UserService struct {
	client *repo.Client
	hasher *password.Hasher
}

func New(client *repo.Client, hasher *password.Hasher) *UserService {
	return &UserService{client: client, hasher: hasher}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	u, err := s.client.User.Get(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if len(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.hasher.Verify(u.PasswordHash, current); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("verify password: %w", err)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.client.User.SetPasswordHash(ctx, id, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
