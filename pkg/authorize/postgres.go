package authorize

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	psqlwatcher "github.com/IguteChung/casbin-psql-watcher"
	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	entadapter "github.com/casbin/ent-adapter"
	_ "github.com/lib/pq"
)

// PolicyChannel is the LISTEN/NOTIFY channel replicas use to tell each other
// that the stored policies changed.
const PolicyChannel = "fieldz_casbin_policy"

// policyLoadHealthy is false after a watcher-triggered reload failed, until
// the next reload succeeds.
var policyLoadHealthy atomic.Bool

func init() {
	policyLoadHealthy.Store(true)
}

// IsPolicyHealthy reports whether the last policy reload succeeded.
func IsPolicyHealthy() bool {
	return policyLoadHealthy.Load()
}

// CleanupFunc releases whatever the enforcer holds open.
type CleanupFunc func(ctx context.Context)

// Open builds the enforcer for cfg: policies stored in Postgres when cfg.DSN
// is set, otherwise the in-memory enforcer from NewEnforcer.
func Open(ctx context.Context, cfg Config) (*casbin.SyncedEnforcer, CleanupFunc, error) {
	if cfg.DSN == "" {
		e, err := NewEnforcer(cfg)
		if err != nil {
			return nil, nil, err
		}
		return e, func(context.Context) {}, nil
	}
	return NewPostgresEnforcer(ctx, cfg.DSN)
}

// NewPostgresEnforcer stores policies in dsn through the ent adapter, which
// creates its casbin_rules table on first use. Writes are saved right away and
// announced on PolicyChannel so every replica reloads.
func NewPostgresEnforcer(ctx context.Context, dsn string) (*casbin.SyncedEnforcer, CleanupFunc, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, nil, fmt.Errorf("casbin model: %w", err)
	}

	a, err := entadapter.NewAdapter("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("casbin adapter: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m, a)
	if err != nil {
		return nil, nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	w, err := psqlwatcher.NewWatcherWithConnString(ctx, dsn, psqlwatcher.Option{
		Channel: PolicyChannel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("casbin watcher: %w", err)
	}

	// SetWatcher installs a default reload callback; ours replaces it.
	if err := e.SetWatcher(w); err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("casbin watcher: %w", err)
	}
	err = w.SetUpdateCallback(func(msg string) {
		slog.Debug("casbin policy update received", "message", msg)
		if err := e.LoadPolicy(); err != nil {
			slog.Error("failed to reload policy after watcher notification", "error", err)
			policyLoadHealthy.Store(false)
			return
		}
		policyLoadHealthy.Store(true)
	})
	if err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("casbin watcher: %w", err)
	}

	e.EnableAutoSave(true)
	e.EnableEnforce(true)

	cleanup := func(context.Context) {
		slog.Info("closing casbin policy watcher")
		w.Close()
	}
	return e, cleanup, nil
}
