package token

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"shopfront/internal/redisx"
)

// Blocklist records revoked token ids until the token would have expired
// anyway.
type Blocklist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryBlocklist is a single-process Blocklist.
type MemoryBlocklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlocklist() *MemoryBlocklist {
	return &MemoryBlocklist{revoked: map[string]time.Time{}, now: time.Now}
}

func (b *MemoryBlocklist) Revoke(_ context.Context, jti string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()
	b.revoked[jti] = until
	return nil
}

func (b *MemoryBlocklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	until, ok := b.revoked[jti]
	if !ok {
		return false, nil
	}
	if !b.now().Before(until) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}

func (b *MemoryBlocklist) pruneLocked() {
	t := b.now()
	for k, until := range b.revoked {
		if !t.Before(until) {
			delete(b.revoked, k)
		}
	}
}

// RedisBlocklist shares revocations across instances. Keys expire with the
// token so the set never grows unbounded.
type RedisBlocklist struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisBlocklist(rdb *redis.Client) *RedisBlocklist {
	return &RedisBlocklist{rdb: rdb, now: time.Now}
}

func (b *RedisBlocklist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, redisx.PrefixRevoked+jti, 1, ttl).Err()
}

func (b *RedisBlocklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.rdb.Exists(ctx, redisx.PrefixRevoked+jti).Result()
	return n > 0, err
}
