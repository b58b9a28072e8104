package database

import (
	"strings"
	"testing"

	"github.com/fieldz/fieldz_backend/config"
)

func TestDSN(t *testing.T) {
	pg := Config{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "fieldz", SSLMode: "disable"}
	if got, want := pg.DSN(), "host=db port=5432 user=u password=p dbname=fieldz sslmode=disable"; got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}

	lite := Config{Driver: DriverSQLite, Path: "/tmp/fieldz.db"}
	dsn := lite.DSN()
	if !strings.HasPrefix(dsn, "file:/tmp/fieldz.db?") {
		t.Fatalf("sqlite DSN = %q", dsn)
	}
	for _, part := range []string{"_time_format=sqlite", "_txlock=immediate", "foreign_keys%281%29"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("sqlite DSN %q is missing %q", dsn, part)
		}
	}
}

func TestFromCentralConfig(t *testing.T) {
	c := config.DatabaseConfig{Driver: "sqlite", Path: "x.db"}
	c.Pool.MaxOpenConns = 3
	c.Logging.Enabled = true

	got := FromCentralConfig(c)
	if got.Driver != DriverSQLite || got.Path != "x.db" || got.MaxOpenConns != 3 || !got.EnableLogging {
		t.Fatalf("unexpected conversion: %+v", got)
	}
	if got.MaxIdleConns != DefaultConfig().MaxIdleConns {
		t.Errorf("MaxIdleConns = %d, want default", got.MaxIdleConns)
	}
}

func TestNewEntClientSQLite(t *testing.T) {
	client, err := NewEntClientFromConfig(Config{Driver: DriverSQLite, Path: t.TempDir() + "/test.db"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer client.Close()

	if err := MigrateEnt(t.Context(), client); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if client.Dialect() != "sqlite3" {
		t.Fatalf("dialect = %q", client.Dialect())
	}
}
