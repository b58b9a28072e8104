package repo_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fieldz/fieldz_backend/internal/repo"
)

func openTestClient(t *testing.T) *repo.Client {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "repo.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	client := repo.OpenSQL(dialect.SQLite, db)
	t.Cleanup(func() { client.Close() })

	if err := client.Schema.Create(context.Background()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return client
}

func seedFacility(t *testing.T, client *repo.Client) (*repo.User, *repo.Facility) {
	t.Helper()
	ctx := context.Background()
	u, err := client.User.Create(ctx, &repo.User{Email: "Owner@Example.com", PasswordHash: "x", Role: repo.RoleClub})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	f, err := client.Facility.Create(ctx, &repo.Facility{OwnerID: u.ID, Name: "Terrain A", Sport: "football", City: "Alger"})
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}
	return u, f
}

func at(h, m int) time.Time {
	return time.Date(2024, time.January, 1, h, m, 0, 0, time.UTC)
}

func TestUserCreateAndLookup(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()

	u, err := client.User.Create(ctx, &repo.User{Email: " Player@Example.com ", PasswordHash: "h", Role: repo.RolePlayer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID.Version() != 7 {
		t.Errorf("expected a v7 id, got version %d", u.ID.Version())
	}

	got, err := client.User.GetByEmail(ctx, "PLAYER@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID || got.Email != "player@example.com" || got.Role != repo.RolePlayer {
		t.Fatalf("unexpected user %+v", got)
	}

	_, err = client.User.Create(ctx, &repo.User{Email: "player@example.com", PasswordHash: "h", Role: repo.RolePlayer})
	if !repo.IsConstraintError(err) {
		t.Fatalf("duplicate email: expected constraint error, got %v", err)
	}

	_, err = client.User.Get(ctx, uuid.New())
	if !repo.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFacilityCRUD(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	owner, f := seedFacility(t, client)

	if f.ID == 0 {
		t.Fatal("facility id was not returned")
	}
	got, err := client.Facility.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OwnerID != owner.ID || got.Name != "Terrain A" {
		t.Fatalf("unexpected facility %+v", got)
	}

	if _, err := client.Facility.Create(ctx, &repo.Facility{OwnerID: owner.ID, Name: "Terrain B"}); err != nil {
		t.Fatalf("create second: %v", err)
	}
	mine, err := client.Facility.ListByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != f.ID {
		t.Fatalf("expected two facilities ordered by id, got %d", len(mine))
	}

	if _, err := client.Facility.Get(ctx, 9999); !repo.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = client.Facility.Create(ctx, &repo.Facility{OwnerID: uuid.New(), Name: "orphan"})
	if !repo.IsConstraintError(err) {
		t.Fatalf("unknown owner: expected constraint error, got %v", err)
	}
}

func TestSlotRangeQueries(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	owner, f := seedFacility(t, client)
	other, err := client.Facility.Create(ctx, &repo.Facility{OwnerID: owner.ID, Name: "Terrain B"})
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}

	for _, s := range []*repo.Slot{
		{FacilityID: other.ID, StartsAt: at(8, 0), EndsAt: at(23, 0), Price: 900},
		{FacilityID: f.ID, StartsAt: at(8, 0), EndsAt: at(9, 0), Price: 1000},
		{FacilityID: f.ID, StartsAt: at(9, 0), EndsAt: at(10, 0), Price: 1000, Status: repo.SlotStatusBooked},
		{FacilityID: f.ID, StartsAt: at(12, 0), EndsAt: at(13, 30), Price: 1500, Status: repo.SlotStatusCancelledByPlayer},
	} {
		if _, err := client.Slot.Create(ctx, s); err != nil {
			t.Fatalf("create slot: %v", err)
		}
	}

	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"touching before is excluded", at(7, 0), at(8, 0), 0},
		{"touching after is excluded", at(13, 30), at(15, 0), 0},
		{"inside one slot", at(8, 15), at(8, 45), 1},
		{"spans two slots", at(8, 30), at(9, 30), 2},
		{"cancelled slots are returned", at(12, 30), at(12, 45), 1},
		{"whole day", at(0, 0), at(23, 59), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.Slot.FindByFacilityAndRange(ctx, f.ID, tt.from, tt.to)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d slots, want %d", len(got), tt.want)
			}
		})
	}

	starting, err := client.Slot.ListStartingBetween(ctx, f.ID, at(9, 0), at(12, 0))
	if err != nil {
		t.Fatalf("list starting: %v", err)
	}
	if len(starting) != 1 || !starting[0].StartsAt.Equal(at(9, 0)) || starting[0].Status != repo.SlotStatusBooked {
		t.Fatalf("unexpected slots %+v", starting)
	}
}

func TestSlotStatusAndDelete(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	_, f := seedFacility(t, client)

	s, err := client.Slot.Create(ctx, &repo.Slot{FacilityID: f.ID, StartsAt: at(18, 0), EndsAt: at(19, 30), Price: 2500})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Status != repo.SlotStatusFree {
		t.Fatalf("default status = %q", s.Status)
	}

	if err := client.Slot.UpdateStatus(ctx, f.ID, s.ID, repo.SlotStatusBooked); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := client.Slot.Get(ctx, f.ID, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != repo.SlotStatusBooked || got.Price != 2500 || !got.EndsAt.Equal(at(19, 30)) {
		t.Fatalf("unexpected slot %+v", got)
	}

	if _, err := client.Slot.Get(ctx, f.ID+1, s.ID); !repo.IsNotFound(err) {
		t.Fatalf("other facility: expected not found, got %v", err)
	}
	if err := client.Slot.Delete(ctx, f.ID, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := client.Slot.Delete(ctx, f.ID, s.ID); !repo.IsNotFound(err) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestSlotConstraints(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	_, f := seedFacility(t, client)

	_, err := client.Slot.Create(ctx, &repo.Slot{FacilityID: f.ID, StartsAt: at(10, 0), EndsAt: at(10, 0), Price: 0})
	if !repo.IsConstraintError(err) {
		t.Fatalf("empty interval: expected constraint error, got %v", err)
	}
	_, err = client.Slot.Create(ctx, &repo.Slot{FacilityID: f.ID, StartsAt: at(10, 0), EndsAt: at(11, 0), Price: -1})
	if !repo.IsConstraintError(err) {
		t.Fatalf("negative price: expected constraint error, got %v", err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	_, f := seedFacility(t, client)

	boom := errors.New("boom")
	err := repo.WithTx(ctx, client, func(tx *repo.Tx) error {
		if _, err := tx.Slot.Create(ctx, &repo.Slot{FacilityID: f.ID, StartsAt: at(8, 0), EndsAt: at(9, 0)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	left, err := client.Slot.FindByFacilityAndRange(ctx, f.ID, at(0, 0), at(23, 0))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("rolled back transaction left %d slots", len(left))
	}

	err = repo.WithTx(ctx, client, func(tx *repo.Tx) error {
		if _, err := tx.Facility.GetForUpdate(ctx, f.ID); err != nil {
			return err
		}
		_, err := tx.Slot.Create(ctx, &repo.Slot{FacilityID: f.ID, StartsAt: at(8, 0), EndsAt: at(9, 0)})
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	left, _ = client.Slot.FindByFacilityAndRange(ctx, f.ID, at(0, 0), at(23, 0))
	if len(left) != 1 {
		t.Fatalf("expected the committed slot, got %d", len(left))
	}
}
