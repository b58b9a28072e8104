package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fieldz/fieldz_backend/pkg/reqctx"
)

// SessionStore keeps the server side of a login. A session lives until
// logout or until its TTL runs out; refreshing extends it.
type SessionStore interface {
	Save(ctx context.Context, s *reqctx.Session, ttl time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (*reqctx.Session, error)
	Touch(ctx context.Context, id uuid.UUID, ttl time.Duration) error
	// Delete reports whether a live session was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// redisKeySession returns the Redis key for a session.
func redisKeySession(id uuid.UUID) string { return "session:" + id.String() }

type sessionRecord struct {
	UserID uuid.UUID `json:"uid"`
	Role   string    `json:"role"`
}

type RedisSessions struct {
	rdb redis.UniversalClient
}

func NewRedisSessions(rdb redis.UniversalClient) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func (r *RedisSessions) Save(ctx context.Context, s *reqctx.Session, ttl time.Duration) error {
	data, err := json.Marshal(sessionRecord{UserID: s.UserID, Role: s.Role})
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, redisKeySession(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisSessions) Get(ctx context.Context, id uuid.UUID) (*reqctx.Session, error) {
	data, err := r.rdb.Get(ctx, redisKeySession(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &reqctx.Session{ID: id, UserID: rec.UserID, Role: rec.Role}, nil
}

func (r *RedisSessions) Touch(ctx context.Context, id uuid.UUID, ttl time.Duration) error {
	ok, err := r.rdb.Expire(ctx, redisKeySession(id), ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (r *RedisSessions) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.rdb.Del(ctx, redisKeySession(id)).Result()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return n > 0, nil
}

// MemorySessions is a process-local SessionStore for single-node setups
// without Redis.
type MemorySessions struct {
	mu  sync.Mutex
	m   map[uuid.UUID]memorySession
	now func() time.Time
}

type memorySession struct {
	s       reqctx.Session
	expires time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{m: make(map[uuid.UUID]memorySession), now: time.Now}
}

func (m *MemorySessions) Save(_ context.Context, s *reqctx.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[s.ID] = memorySession{s: *s, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemorySessions) Get(_ context.Context, id uuid.UUID) (*reqctx.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := e.s
	return &s, nil
}

func (m *MemorySessions) Touch(_ context.Context, id uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return ErrSessionNotFound
	}
	e.expires = m.now().Add(ttl)
	m.m[id] = e
	return nil
}

func (m *MemorySessions) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live(id)
	delete(m.m, id)
	return ok, nil
}

// live must be called with mu held; it drops the entry when expired.
func (m *MemorySessions) live(id uuid.UUID) (memorySession, bool) {
	e, ok := m.m[id]
	if !ok {
		return memorySession{}, false
	}
	if !m.now().Before(e.expires) {
		delete(m.m, id)
		return memorySession{}, false
	}
	return e, true
}
