package authorize

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/fieldz/fieldz_backend/config"
)

func TestFromCentralConfigPolicyStore(t *testing.T) {
	tests := []struct {
		name    string
		db      config.DatabaseConfig
		store   string
		wantDSN bool
	}{
		{"postgres stores policies", config.DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, DBName: "fieldz"}, "", true},
		{"default driver is postgres", config.DatabaseConfig{Host: "db", DBName: "fieldz"}, "", true},
		{"memory override", config.DatabaseConfig{Driver: "postgres", Host: "db"}, PolicyStoreMemory, false},
		{"sqlite stays in memory", config.DatabaseConfig{Driver: "sqlite", Path: "/tmp/fieldz.db"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Database: tt.db}
			cfg.Authorization.PolicyStore = tt.store
			cfg.Authorization.EnableAudit = true

			got := FromCentralConfig(cfg)
			if (got.DSN != "") != tt.wantDSN {
				t.Fatalf("DSN = %q, want set: %v", got.DSN, tt.wantDSN)
			}
			if tt.wantDSN && !strings.Contains(got.DSN, "host=db") {
				t.Errorf("DSN = %q does not point at the database host", got.DSN)
			}
			if !got.EnableAudit {
				t.Error("EnableAudit was dropped")
			}
		})
	}
}

func TestOpenInMemory(t *testing.T) {
	e, cleanup, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer cleanup(context.Background())

	auth, err := NewAuthorization(e)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ok, err := auth.Enforce(context.Background(), RoleClub, FacilityDomain(1), ResourceRecurringRule, ActionExecute)
	if err != nil || !ok {
		t.Fatalf("club cannot execute recurring rules: %v %v", ok, err)
	}
}

// TestPostgresEnforcer needs a scratch database in FIELDZ_TEST_POSTGRES_DSN.
func TestPostgresEnforcer(t *testing.T) {
	dsn := os.Getenv("FIELDZ_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FIELDZ_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	e, cleanup, err := Open(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer cleanup(ctx)
	auth, err := NewAuthorization(e)
	if err != nil {
		t.Fatalf("authorization: %v", err)
	}
	if err := SeedDefaultPolicies(ctx, auth); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// a second enforcer on the same database sees the saved policies
	other, cleanupOther, err := Open(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("open second: %v", err)
	}
	defer cleanupOther(ctx)
	otherAuth, _ := NewAuthorization(other)
	ok, err := otherAuth.Enforce(ctx, RoleClub, FacilityDomain(1), ResourceRecurringRule, ActionExecute)
	if err != nil || !ok {
		t.Fatalf("stored policies not loaded: %v %v", ok, err)
	}
	if !IsPolicyHealthy() {
		t.Error("policy reload reported unhealthy")
	}
}
