package facility

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/fieldz/fieldz_backend/internal/repo"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Name  string
	Sport string
	City  string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, req CreateRequest) (*repo.Facility, error)
	Get(ctx context.Context, id int64) (*repo.Facility, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*repo.Facility, error)
	List(ctx context.Context) ([]*repo.Facility, error)

	// IsOwner reports whether userID owns facility id. An unknown facility
	// returns ErrFacilityNotFound.
	IsOwner(ctx context.Context, id int64, userID uuid.UUID) (bool, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type facilityService struct {
	db *repo.Client
}

func New(db *repo.Client) Service {
	return &facilityService{db: db}
}

func (s *facilityService) Create(ctx context.Context, ownerID uuid.UUID, req CreateRequest) (*repo.Facility, error) {
	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n == 0 || n > 120 {
		return nil, ErrInvalidName
	}

	f, err := s.db.Facility.Create(ctx, &repo.Facility{
		OwnerID: ownerID,
		Name:    name,
		Sport:   strings.TrimSpace(req.Sport),
		City:    strings.TrimSpace(req.City),
	})
	if err != nil {
		if repo.IsConstraintError(err) {
			return nil, ErrUnknownOwner
		}
		return nil, fmt.Errorf("create facility: %w", err)
	}
	return f, nil
}

func (s *facilityService) Get(ctx context.Context, id int64) (*repo.Facility, error) {
	f, err := s.db.Facility.Get(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("get facility: %w", err)
	}
	return f, nil
}

func (s *facilityService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*repo.Facility, error) {
	list, err := s.db.Facility.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return list, nil
}

func (s *facilityService) List(ctx context.Context) ([]*repo.Facility, error) {
	list, err := s.db.Facility.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return list, nil
}

func (s *facilityService) IsOwner(ctx context.Context, id int64, userID uuid.UUID) (bool, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return f.OwnerID == userID, nil
}
