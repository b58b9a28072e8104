package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fieldz/fieldz_backend/config"
)

// InitializeDatabase creates the application database if it doesn't exist.
// It connects to the default 'postgres' database to create it. SQLite files
// are created on first open, so nothing is done for that driver.
func InitializeDatabase(cfg *config.Config) error {
	pc := FromCentralConfig(cfg.Database)
	if pc.driver() == DriverSQLite {
		return nil
	}
	if pc.DBName == "" {
		return fmt.Errorf("no database name provided")
	}
	target := pc.DBName
	pc.DBName = "postgres"

	conn, err := openSQLDB(pc)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	if err := createDatabaseIfNotExists(conn, target); err != nil {
		return fmt.Errorf("failed to create database %q: %w", target, err)
	}
	return nil
}

// createDatabaseIfNotExists creates a database if it doesn't already exist
func createDatabaseIfNotExists(conn *sql.DB, dbName string) error {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	err := conn.QueryRowContext(context.Background(), query, dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if exists {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName))
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	return nil
}
