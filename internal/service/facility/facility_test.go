package facility_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/internal/service/facility"
)

func newService(t *testing.T) (facility.Service, *repo.User) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "facility.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	client := repo.OpenSQL(dialect.SQLite, db)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Schema.Create(ctx))
	owner, err := client.User.Create(ctx, &repo.User{Email: "club@example.com", PasswordHash: "x", Role: repo.RoleClub})
	require.NoError(t, err)
	return facility.New(client), owner
}

func TestCreateAndGet(t *testing.T) {
	svc, owner := newService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, owner.ID, facility.CreateRequest{Name: "  Terrain Hydra  ", Sport: "football", City: "Alger"})
	require.NoError(t, err)
	assert.Equal(t, "Terrain Hydra", f.Name)

	got, err := svc.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)

	_, err = svc.Get(ctx, f.ID+100)
	require.ErrorIs(t, err, facility.ErrFacilityNotFound)
}

func TestCreateValidation(t *testing.T) {
	svc, owner := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, facility.CreateRequest{Name: "   "})
	require.ErrorIs(t, err, facility.ErrInvalidName)

	_, err = svc.Create(ctx, owner.ID, facility.CreateRequest{Name: strings.Repeat("x", 121)})
	require.ErrorIs(t, err, facility.ErrInvalidName)

	_, err = svc.Create(ctx, uuid.New(), facility.CreateRequest{Name: "Orphan"})
	require.ErrorIs(t, err, facility.ErrUnknownOwner)
}

func TestListAndOwnership(t *testing.T) {
	svc, owner := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, owner.ID, facility.CreateRequest{Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner.ID, facility.CreateRequest{Name: "B"})
	require.NoError(t, err)

	mine, err := svc.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := svc.ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ok, err := svc.IsOwner(ctx, a.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsOwner(ctx, a.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.IsOwner(ctx, 999, owner.ID)
	require.ErrorIs(t, err, facility.ErrFacilityNotFound)
}
