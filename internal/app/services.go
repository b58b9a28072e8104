package app

import (
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/fieldz/fieldz_backend/config"
	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/internal/service/auth"
	"github.com/fieldz/fieldz_backend/internal/service/facility"
	"github.com/fieldz/fieldz_backend/internal/service/scheduling"
	"github.com/fieldz/fieldz_backend/internal/service/user"
	"github.com/fieldz/fieldz_backend/pkg/observability"
	pasetotoken "github.com/fieldz/fieldz_backend/pkg/paseto"
	"github.com/fieldz/fieldz_backend/pkg/recurrence"
	"github.com/fieldz/fieldz_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideSessionStore,
		ProvideLocker,
		ProvidePublisher,
		ProvideSchedulingMetrics,
		ProvideUserService,
		ProvideAuthService,
		ProvideFacilityService,
		ProvideSchedulingService,
	),
)

func ProvideSessionStore(cfg *config.Config, rdb redis.UniversalClient) auth.SessionStore {
	if cfg.Authentication.SessionStore == "memory" || rdb == nil {
		return auth.NewMemorySessions()
	}
	return auth.NewRedisSessions(rdb)
}

func ProvideLocker(cfg *config.Config, rdb redis.UniversalClient) scheduling.Locker {
	if cfg.Scheduling.LockBackend == "local" || rdb == nil {
		return scheduling.NewLocalLocker(cfg.Scheduling.LockWait())
	}
	return scheduling.NewRedisLocker(rdb, cfg.Scheduling.LockTTL(), cfg.Scheduling.LockWait())
}

func ProvidePublisher(cfg *config.Config, nc *nats.Conn) scheduling.Publisher {
	return scheduling.NewNatsPublisher(nc, cfg.Nats.SubjectPrefix)
}

type metricsParams struct {
	fx.In

	Cfg  *config.Config
	OTel *observability.Provider `optional:"true"`
}

// ProvideSchedulingMetrics returns nil when metrics are off; the service
// treats a nil recorder as a no-op.
func ProvideSchedulingMetrics(p metricsParams) *observability.SchedulingMetrics {
	if p.OTel == nil || !p.Cfg.Observability.Metrics.Enabled {
		return nil
	}
	return observability.NewSchedulingMetrics()
}

func ProvideUserService(client *repo.Client, hasher *password.Hasher) user.Service {
	return user.New(client, hasher)
}

func ProvideAuthService(
	db *repo.Client,
	sessions auth.SessionStore,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
) auth.Service {
	return auth.New(db, sessions, paseto, hasher)
}

func ProvideFacilityService(db *repo.Client) facility.Service {
	return facility.New(db)
}

func ProvideSchedulingService(
	cfg *config.Config,
	db *repo.Client,
	locker scheduling.Locker,
	pub scheduling.Publisher,
	metrics *observability.SchedulingMetrics,
) (scheduling.Service, error) {
	loc, err := cfg.Scheduling.Location()
	if err != nil {
		return nil, err
	}
	maxDays := cfg.Scheduling.MaxRangeDays
	if maxDays == 0 {
		maxDays = scheduling.DefaultMaxRangeDays
	}
	slog.Debug("scheduling service configured", "timezone", loc.String(), "max_range_days", maxDays)
	return scheduling.New(db,
		scheduling.WithLocker(locker),
		scheduling.WithPublisher(pub),
		scheduling.WithMetrics(metrics),
		scheduling.WithLocation(loc),
		scheduling.WithLimits(recurrence.Limits{MaxRangeDays: maxDays}),
	), nil
}
