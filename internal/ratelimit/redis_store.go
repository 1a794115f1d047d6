package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"shopfront/internal/redisx"
)

// slidingWindow trims the sorted set to the window, then either records the
// hit or reports the oldest score so the caller can compute Retry-After.
// Returns {allowed, count, oldest_ms}.
var slidingWindow = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, count, tonumber(oldest[2])}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {1, count + 1, tonumber(first[2])}
`)

// RedisStore implements Store on a Redis sorted set per key.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	nowMs := now.UnixMilli()
	winMs := window.Milliseconds()
	res, err := slidingWindow.Run(ctx, s.rdb, []string{redisx.PrefixRateLimit + key},
		nowMs, winMs, limit, strconv.FormatInt(nowMs, 10)+"-"+uuid.NewString()).Int64Slice()
	if err != nil {
		return Result{}, err
	}
	if len(res) != 3 {
		return Result{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	reset := time.UnixMilli(res[2] + winMs)
	if res[0] == 0 {
		return Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			RetryAfter: reset.Sub(now),
			Reset:      reset,
		}, nil
	}
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - int(res[1]),
		Reset:     reset,
	}, nil
}
