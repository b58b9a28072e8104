package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a lock could not be taken before the wait
// deadline.
var ErrLockTimeout = errors.New("redis: timed out waiting for lock")

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by someone else is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Mutex is a single-key lock built on SET NX PX.
type Mutex struct {
	rdb   goredis.UniversalClient
	key   string
	ttl   time.Duration
	retry time.Duration
}

func NewMutex(rdb goredis.UniversalClient, key string, ttl time.Duration) *Mutex {
	return &Mutex{rdb: rdb, key: key, ttl: ttl, retry: 50 * time.Millisecond}
}

// Lock blocks until the key is acquired, ctx is done or wait elapses. The
// returned function releases the lock.
func (m *Mutex) Lock(ctx context.Context, wait time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := m.rdb.SetNX(ctx, m.key, token, m.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: acquire %s: %w", m.key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, m.rdb, []string{m.key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		t := time.NewTimer(m.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
