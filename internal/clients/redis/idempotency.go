package redis

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/grammarheroes/backend/internal/platform/logger"
)

// Guard implements claim-once semantics for client-supplied operation tokens.
// The first Claim for a key within the TTL window returns true; repeats
// return false until the claim expires.
type Guard interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type redisGuard struct {
	log      *logger.Logger
	rdb      *goredis.Client
	fallback *MemoryGuard
}

// NewGuard builds a redis-backed guard with an in-process fallback for when
// redis is down. rdb may be nil (fallback only).
func NewGuard(log *logger.Logger, rdb *goredis.Client, fallback *MemoryGuard) Guard {
	if fallback == nil {
		fallback = NewMemoryGuard()
	}
	return &redisGuard{
		log:      log.With("service", "IdempotencyGuard"),
		rdb:      rdb,
		fallback: fallback,
	}
}

func (g *redisGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if g.rdb != nil {
		claimed, err := g.rdb.SetNX(ctx, "idem:"+key, "1", ttl).Result()
		if err == nil {
			return claimed, nil
		}
		g.log.Warn("redis setnx failed, using fallback guard", "error", err)
	}
	return g.fallback.Claim(ctx, key, ttl)
}

// MemoryGuard is the in-process claim table. Same semantics, process scope.
type MemoryGuard struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		claims: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (g *MemoryGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if expiry, ok := g.claims[key]; ok && now.Before(expiry) {
		return false, nil
	}
	g.claims[key] = now.Add(ttl)
	return true, nil
}
