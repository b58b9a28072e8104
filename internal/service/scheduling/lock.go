package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redispkg "github.com/fieldz/fieldz_backend/pkg/redis"
)

// Locker serializes schedule mutations per facility. The returned function
// releases the lock and must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, facilityID int64) (unlock func(), err error)
}

// LocalLocker is an in-process Locker, enough for a single replica and for
// tests.
type LocalLocker struct {
	wait time.Duration

	mu   sync.Mutex
	sems map[int64]chan struct{}
}

// NewLocalLocker waits at most wait for a busy facility; zero waits until
// the context is done.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, sems: make(map[int64]chan struct{})}
}

func (l *LocalLocker) Lock(ctx context.Context, facilityID int64) (func(), error) {
	l.mu.Lock()
	sem, ok := l.sems[facilityID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.sems[facilityID] = sem
	}
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.wait > 0 {
		t := time.NewTimer(l.wait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-sem }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, ErrScheduleBusy
	}
}

// RedisLocker shares the per-facility lock between replicas.
type RedisLocker struct {
	rdb  goredis.UniversalClient
	ttl  time.Duration
	wait time.Duration
}

func NewRedisLocker(rdb goredis.UniversalClient, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, wait: wait}
}

func lockKey(facilityID int64) string {
	return "fieldz:lock:facility:" + strconv.FormatInt(facilityID, 10)
}

func (l *RedisLocker) Lock(ctx context.Context, facilityID int64) (func(), error) {
	key := lockKey(facilityID)
	release, err := redispkg.NewMutex(l.rdb, key, l.ttl).Lock(ctx, l.wait)
	if errors.Is(err, redispkg.ErrLockTimeout) {
		return nil, ErrScheduleBusy
	}
	if err != nil {
		return nil, fmt.Errorf("lock facility %d: %w", facilityID, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := release(rctx); err != nil {
				slog.WarnContext(ctx, "scheduling: releasing facility lock failed", "key", key, "error", err)
			}
		})
	}, nil
}
