package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fieldz/fieldz_backend/config"
)

// testClient connects to FIELDZ_TEST_REDIS_ADDR and skips when it is unset.
func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("FIELDZ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FIELDZ_TEST_REDIS_ADDR not set")
	}
	rdb, err := NewRedis(context.Background(), Config{Addr: addr}, ClientNameCLI)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestMutex(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	key := "fieldz:test:lock:" + t.Name()
	rdb.Del(ctx, key)

	m := NewMutex(rdb, key, 5*time.Second)
	unlock, err := m.Lock(ctx, time.Second)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	if _, err := NewMutex(rdb, key, 5*time.Second).Lock(ctx, 100*time.Millisecond); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("second lock: expected timeout, got %v", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	unlock, err = m.Lock(ctx, time.Second)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	_ = unlock(ctx)
}

func TestFromCentralConfigDefaults(t *testing.T) {
	cfg := FromCentralConfig(configWithAddr("cache:6379"))
	def := DefaultConfig()
	if cfg.Addr != "cache:6379" || cfg.PoolSize != def.PoolSize || cfg.ReadTimeout() != 3*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func configWithAddr(addr string) config.RedisConfig {
	return config.RedisConfig{Addr: addr}
}

func TestOptions(t *testing.T) {
	opts := Options(FromCentralConfig(config.RedisConfig{Addr: "cache:6379", DB: 2, PoolSize: 25}), ClientNameAPI)
	if opts.ClientName != ClientNameAPI || opts.Addr != "cache:6379" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.PoolSize != 25 || opts.MinIdleConns != DefaultConfig().MinIdleConns {
		t.Errorf("pool = %d/%d", opts.PoolSize, opts.MinIdleConns)
	}
	if opts.DialTimeout != 5*time.Second || opts.WriteTimeout != 3*time.Second {
		t.Errorf("timeouts = %s/%s", opts.DialTimeout, opts.WriteTimeout)
	}
}

func TestNewRedisRequiresAddr(t *testing.T) {
	if _, err := NewRedis(context.Background(), Config{}, ClientNameCLI); err == nil {
		t.Fatal("expected an error without an address")
	}
}
