// Package repotest opens throwaway SQLite databases for tests.
package repotest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"entgo.io/ent/dialect"
	_ "modernc.org/sqlite"

	"github.com/fieldz/fieldz_backend/internal/repo"
)

// Open returns a migrated client on a fresh database file that is removed
// when the test ends.
func Open(t testing.TB) *repo.Client {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "fieldz.db") +
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

// Club creates a club account and one facility it owns.
func Club(t testing.TB, client *repo.Client, email, facility string) (*repo.User, *repo.Facility) {
	t.Helper()
	ctx := context.Background()
	u, err := client.User.Create(ctx, &repo.User{Email: email, PasswordHash: "x", Role: repo.RoleClub})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	f, err := client.Facility.Create(ctx, &repo.Facility{OwnerID: u.ID, Name: facility})
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}
	return u, f
}
