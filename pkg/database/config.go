package database

import (
	"fmt"
	"net/url"
	"time"

	"github.com/fieldz/fieldz_backend/config"
)

// Config holds database connection and behavior settings
type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver string

	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	// Path is the SQLite database file.
	Path string

	// Connection pooling
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int

	AutoMigrate bool

	// Query logging
	EnableLogging        bool
	SlowQueryThresholdMs int
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.driver() == DriverSQLite {
		return SQLiteDSN(c.Path)
	}
	return buildDSN(c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// IsPostgres reports whether c points at a Postgres server.
func (c Config) IsPostgres() bool { return c.driver() == DriverPostgres }

func (c Config) driver() string {
	if c.Driver == "" {
		return DriverPostgres
	}
	return c.Driver
}

// SQLiteDSN builds a modernc.org/sqlite DSN for path. Foreign keys are on,
// times are stored as text and write transactions take the lock up front.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")
	q.Set("_txlock", "immediate")
	return fmt.Sprintf("file:%s?%s", path, q.Encode())
}

// ConnMaxLifetime returns the connection max lifetime as a duration
func (c Config) ConnMaxLifetime() time.Duration {
	if c.ConnMaxLifetimeMin <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ConnMaxLifetimeMin) * time.Minute
}

// DefaultConfig returns sensible defaults for database configuration
func DefaultConfig() Config {
	return Config{
		Driver:               DriverPostgres,
		Host:                 "localhost",
		Port:                 5432,
		SSLMode:              "disable",
		MaxOpenConns:         25,
		MaxIdleConns:         5,
		ConnMaxLifetimeMin:   5,
		SlowQueryThresholdMs: 200,
	}
}

// FromCentralConfig converts central config.DatabaseConfig to package Config.
// Zero pool settings fall back to DefaultConfig.
func FromCentralConfig(c config.DatabaseConfig) Config {
	def := DefaultConfig()
	out := Config{
		Driver:               c.Driver,
		Host:                 c.Host,
		Port:                 c.Port,
		User:                 c.User,
		Password:             c.Password,
		DBName:               c.DBName,
		SSLMode:              c.SSLMode,
		Path:                 c.Path,
		MaxOpenConns:         c.Pool.MaxOpenConns,
		MaxIdleConns:         c.Pool.MaxIdleConns,
		ConnMaxLifetimeMin:   c.Pool.ConnMaxLifetimeMin,
		AutoMigrate:          c.Migrations.AutoMigrate,
		EnableLogging:        c.Logging.Enabled,
		SlowQueryThresholdMs: c.Logging.SlowQueryThresholdMs,
	}
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = def.MaxOpenConns
	}
	if out.MaxIdleConns <= 0 {
		out.MaxIdleConns = def.MaxIdleConns
	}
	if out.ConnMaxLifetimeMin <= 0 {
		out.ConnMaxLifetimeMin = def.ConnMaxLifetimeMin
	}
	if out.SlowQueryThresholdMs <= 0 {
		out.SlowQueryThresholdMs = def.SlowQueryThresholdMs
	}
	return out
}
