package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/fieldz/fieldz_backend/config"
	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/pkg/authorize"
	"github.com/fieldz/fieldz_backend/pkg/database"
	"github.com/fieldz/fieldz_backend/pkg/observability"
	pasetotoken "github.com/fieldz/fieldz_backend/pkg/paseto"
	redispkg "github.com/fieldz/fieldz_backend/pkg/redis"
	"github.com/fieldz/fieldz_backend/pkg/util/password"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideEntClient),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvidePasetoManager),
	fx.Provide(ProvidePasswordHasher),
)

func ProvideEntClient(lc fx.Lifecycle, cfg *config.Config) (*repo.Client, error) {
	client, err := database.NewEntClient(cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Database.Migrations.AutoMigrate {
				return nil
			}
			slog.Info("running database migrations", "dialect", client.Dialect())
			return database.MigrateEnt(ctx, client)
		},
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return client.Close()
		},
	})
	return client, nil
}

// NeedsRedis reports whether any configured backend lives in Redis.
func NeedsRedis(cfg *config.Config) bool {
	return cfg.Authentication.SessionStore != "memory" || cfg.Scheduling.LockBackend != "local"
}

// ProvideRedis returns a nil client when sessions and locks are both kept in
// process memory.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (redis.UniversalClient, error) {
	if !NeedsRedis(cfg) {
		slog.Info("redis disabled: memory sessions and local locks")
		return nil, nil
	}
	rdb, err := redispkg.NewRedisFromCentral(context.Background(), cfg.Redis, redispkg.ClientNameAPI)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	azCfg := authorize.FromCentralConfig(cfg)
	enforcer, cleanup, err := authorize.Open(context.Background(), azCfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			cleanup(ctx)
			return nil
		},
	})
	if azCfg.DSN != "" {
		slog.Info("casbin policies stored in postgres", "channel", authorize.PolicyChannel)
	}
	auth, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		return nil, err
	}
	if azCfg.EnableAudit {
		auth = authorize.NewAuditedAuthorization(auth, slog.Default())
	}
	if err := authorize.SeedDefaultPolicies(context.Background(), auth); err != nil {
		return nil, fmt.Errorf("seed policies: %w", err)
	}
	return auth, nil
}

// ProvideNatsClient returns a nil connection when no NATS URL is configured;
// events are then dropped and no worker starts.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		slog.Info("nats disabled: no url configured")
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name("fieldz_backend"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

func ProvidePasswordHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}
