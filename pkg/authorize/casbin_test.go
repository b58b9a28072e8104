package authorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newSeeded(t *testing.T) IAuthorization {
	t.Helper()
	e, err := NewEnforcer(Config{})
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	auth, err := NewAuthorization(e)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	if _, err := NewAuthorization(nil); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}

func TestDefaultPolicies(t *testing.T) {
	auth := newSeeded(t)
	ctx := context.Background()
	fac := FacilityDomain(7)

	tests := []struct {
		name   string
		role   Role
		domain Domain
		obj    Resource
		act    Action
		want   bool
	}{
		{"club generates recurring slots", RoleClub, fac, ResourceRecurringRule, ActionExecute, true},
		{"club deletes a slot", RoleClub, fac, ResourceSlot, ActionDelete, true},
		{"club creates a facility", RoleClub, DomainSys, ResourceFacility, ActionCreate, true},
		{"manage does not cover execute", RoleClub, fac, ResourceSlot, ActionExecute, false},
		{"player reads slots", RolePlayer, fac, ResourceSlot, ActionList, true},
		{"player cannot generate", RolePlayer, fac, ResourceRecurringRule, ActionExecute, false},
		{"player cannot create slots", RolePlayer, fac, ResourceSlot, ActionCreate, false},
		{"admin does anything", RoleAdmin, fac, ResourceSystem, ActionExecute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.role, tt.domain, tt.obj, tt.act)
			if err != nil {
				t.Fatalf("enforce: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}

	if err := auth.MustEnforce(ctx, RolePlayer, fac, ResourceSlot, ActionDelete); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestEnforceRejectsUnknownArguments(t *testing.T) {
	auth := newSeeded(t)
	ctx := context.Background()

	cases := []struct {
		role   Role
		domain Domain
		obj    Resource
		act    Action
	}{
		{"", DomainSys, ResourceSlot, ActionRead},
		{RoleClub, "tenant:1", ResourceSlot, ActionRead},
		{RoleClub, "facility:abc", ResourceSlot, ActionRead},
		{RoleClub, DomainSys, "invoice", ActionRead},
		{RoleClub, DomainSys, ResourceSlot, "fly"},
	}
	for _, c := range cases {
		if _, err := auth.Enforce(ctx, c.role, c.domain, c.obj, c.act); !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("Enforce(%q, %q, %q, %q): expected ErrInvalidArgs, got %v", c.role, c.domain, c.obj, c.act, err)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	auth := newSeeded(t)
	added, err := auth.AddPermissions(context.Background(), DefaultPolicies...)
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Fatal("re-adding the default policies should add nothing")
	}
}

func TestPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	csv := "p, role:player, facility:3, slot, update, allow\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := NewEnforcer(Config{PolicyPath: path})
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	auth, _ := NewAuthorization(e)

	ok, err := auth.Enforce(context.Background(), RolePlayer, FacilityDomain(3), ResourceSlot, ActionUpdate)
	if err != nil || !ok {
		t.Fatalf("file policy not applied: %v %v", ok, err)
	}
	ok, _ = auth.Enforce(context.Background(), RolePlayer, FacilityDomain(4), ResourceSlot, ActionUpdate)
	if ok {
		t.Fatal("file policy leaked into another facility")
	}
}

func TestRoleFor(t *testing.T) {
	if r, ok := RoleFor(AccountClub); !ok || r != RoleClub {
		t.Fatalf("RoleFor(club) = %q, %v", r, ok)
	}
	if _, ok := RoleFor("coach"); ok {
		t.Fatal("unknown account role accepted")
	}
	if !IsValidDomain(FacilityDomain(12)) || IsValidDomain("facility:0") {
		t.Fatal("facility domain validation is wrong")
	}
}
