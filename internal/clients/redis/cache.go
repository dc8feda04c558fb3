package redis

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/grammarheroes/backend/internal/platform/logger"
)

// CacheStore is a best-effort TTL memo. Both implementations swallow their
// own failures: a lost entry is just a miss, never an error for the caller.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type redisStore struct {
	log      *logger.Logger
	rdb      *goredis.Client
	fallback *MemoryStore
}

// NewCacheStore wraps a redis client with an in-process fallback that takes
// over whenever the round-trip fails. rdb may be nil (fallback only).
func NewCacheStore(log *logger.Logger, rdb *goredis.Client, fallback *MemoryStore) CacheStore {
	if fallback == nil {
		fallback = NewMemoryStore(4096)
	}
	return &redisStore{
		log:      log.With("service", "CacheStore"),
		rdb:      rdb,
		fallback: fallback,
	}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if s.rdb != nil {
		val, err := s.rdb.Get(ctx, key).Bytes()
		if err == nil {
			return val, true
		}
		if err != goredis.Nil {
			s.log.Warn("redis get failed, using fallback", "error", err)
			return s.fallback.Get(ctx, key)
		}
	}
	return s.fallback.Get(ctx, key)
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if s.rdb != nil {
		err := s.rdb.Set(ctx, key, value, ttl).Err()
		if err == nil {
			return
		}
		s.log.Warn("redis set failed, using fallback", "error", err)
	}
	s.fallback.Set(ctx, key, value, ttl)
}

type memoryEntry struct {
	expiresAt time.Time
	value     []byte
}

// MemoryStore is the bounded in-process fallback. Eviction is crude (drop
// expired, then arbitrary overflow) because losing entries is acceptable.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = memoryEntry{
		expiresAt: m.now().Add(ttl),
		value:     value,
	}
}

func (m *MemoryStore) evictLocked() {
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	for k := range m.entries {
		if len(m.entries) < m.maxEntries {
			break
		}
		delete(m.entries, k)
	}
}
