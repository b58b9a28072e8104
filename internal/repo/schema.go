package repo

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

// Schema creates the tables the clients operate on.
type Schema struct {
	conn    dialect.ExecQuerier
	dialect string
}

var postgresDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS facilities (
		id BIGSERIAL PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		sport TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS facilities_owner_id ON facilities (owner_id)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id UUID PRIMARY KEY,
		facility_id BIGINT NOT NULL REFERENCES facilities(id) ON DELETE CASCADE,
		starts_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ NOT NULL,
		price BIGINT NOT NULL CHECK (price >= 0),
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		CHECK (ends_at > starts_at)
	)`,
	`CREATE INDEX IF NOT EXISTS slots_facility_id_starts_at ON slots (facility_id, starts_at)`,
}

var sqliteDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS facilities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		sport TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS facilities_owner_id ON facilities (owner_id)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id TEXT PRIMARY KEY,
		facility_id INTEGER NOT NULL REFERENCES facilities(id) ON DELETE CASCADE,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		price INTEGER NOT NULL CHECK (price >= 0),
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		CHECK (ends_at > starts_at)
	)`,
	`CREATE INDEX IF NOT EXISTS slots_facility_id_starts_at ON slots (facility_id, starts_at)`,
}

// Create runs the idempotent DDL for the client's dialect.
func (s *Schema) Create(ctx context.Context) error {
	var stmts []string
	switch s.dialect {
	case dialect.Postgres:
		stmts = postgresDDL
	case dialect.SQLite:
		stmts = sqliteDDL
	default:
		return fmt.Errorf("repo: unsupported dialect %q", s.dialect)
	}
	for _, stmt := range stmts {
		if err := s.conn.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("repo: create schema: %w", err)
		}
	}
	return nil
}
