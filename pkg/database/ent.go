package database

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"

	"github.com/fieldz/fieldz_backend/config"
	"github.com/fieldz/fieldz_backend/internal/repo"
)

// NewEntClient creates a new repo client from central config
func NewEntClient(cfg config.DatabaseConfig) (*repo.Client, error) {
	return NewEntClientFromConfig(FromCentralConfig(cfg))
}

// NewEntClientFromConfig creates a new repo client from package Config
func NewEntClientFromConfig(cfg Config) (*repo.Client, error) {
	db, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}

	name := dialect.Postgres
	if cfg.driver() == DriverSQLite {
		name = dialect.SQLite
	}

	var opts []repo.Option
	if cfg.EnableLogging {
		opts = append(opts, repo.Debug(), repo.Log(func(ctx context.Context, v ...any) {
			slog.DebugContext(ctx, "sql", "query", fmt.Sprint(v...))
		}))
	}

	return repo.OpenSQL(name, db, opts...), nil
}

func MigrateEnt(ctx context.Context, client *repo.Client) error {
	return client.Schema.Create(ctx)
}
