package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
database:
  driver: sqlite
  path: /tmp/fieldz.db
server:
  port: 9090
  environment: production
scheduling:
  timezone: Europe/Paris
  max_range_days: 365
  lock_backend: local
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestReadConfig(t *testing.T) {
	dir := writeConfig(t, sampleYAML)

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}

	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/tmp/fieldz.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Scheduling.MaxRangeDays != 365 {
		t.Errorf("max_range_days = %d, want 365", cfg.Scheduling.MaxRangeDays)
	}
	// defaults survive when the file omits a key
	if cfg.Authentication.Paseto.Issuer != "fieldz" {
		t.Errorf("paseto.issuer = %q, want default", cfg.Authentication.Paseto.Issuer)
	}
	loc, err := cfg.Scheduling.Location()
	if err != nil || loc.String() != "Europe/Paris" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestReadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, sampleYAML)
	t.Setenv("FIELDZ_SERVER_PORT", "7070")
	t.Setenv("FIELDZ_SCHEDULING_TIMEZONE", "UTC")

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Scheduling.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", cfg.Scheduling.Timezone)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad timezone", func(c *Config) { c.Scheduling.Timezone = "Mars/Olympus" }, true},
		{"bad lock backend", func(c *Config) { c.Scheduling.LockBackend = "etcd" }, true},
		{"negative range", func(c *Config) { c.Scheduling.MaxRangeDays = -1 }, true},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"memory sessions", func(c *Config) { c.Authentication.SessionStore = "memory" }, false},
		{"bad session store", func(c *Config) { c.Authentication.SessionStore = "memcached" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Scheduling: SchedulingConfig{Timezone: "UTC", LockBackend: "local"}}
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchedulingDurations(t *testing.T) {
	var s SchedulingConfig
	if s.LockTTL() != 30*time.Second {
		t.Errorf("LockTTL default = %v", s.LockTTL())
	}
	if s.LockWait() != 5*time.Second {
		t.Errorf("LockWait default = %v", s.LockWait())
	}
	s.LockTTLSeconds = 3
	if s.LockTTL() != 3*time.Second {
		t.Errorf("LockTTL = %v", s.LockTTL())
	}
}
