package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fieldz/fieldz_backend/config"
)

// Connection names shown by CLIENT LIST, so lock holders can be traced back
// to the API or a CLI run.
const (
	ClientNameAPI = "fieldz_api"
	ClientNameCLI = "fieldz_cli"
)

// NewRedisFromCentral connects with the redis section of the app config.
func NewRedisFromCentral(ctx context.Context, cfg config.RedisConfig, name string) (*goredis.Client, error) {
	return NewRedis(ctx, FromCentralConfig(cfg), name)
}

// NewRedis connects and pings once. The ping is bounded by the dial timeout
// so a missing Redis fails startup instead of the first slot generation.
func NewRedis(ctx context.Context, cfg Config, name string) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis.addr is empty")
	}

	rdb := goredis.NewClient(Options(cfg, name))

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout())
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s: ping: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Options maps cfg onto go-redis options. Zero pool sizes keep the go-redis
// defaults.
func Options(cfg Config, name string) *goredis.Options {
	opts := &goredis.Options{
		Addr:         cfg.Addr,
		ClientName:   name,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout(),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	return opts
}
