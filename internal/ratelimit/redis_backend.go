package ratelimit

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript keeps admitted timestamps (ms) in a sorted set.
// KEYS[1] window key; ARGV now_ms, window_ms, max, member.
// Returns {allowed, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < max then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = tonumber(oldest[2]) + window - now
if retry < 1 then
	retry = 1
end
return {0, retry}
`)

// RedisBackend shares sliding windows between server processes.
type RedisBackend struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, now: time.Now}
}

func (b *RedisBackend) Acquire(ctx context.Context, key string, rule Rule) (Result, error) {
	if b.client == nil {
		return Result{}, fmt.Errorf("redis client is nil")
	}

	now := b.now()
	member := ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()

	raw, err := slidingWindowScript.Run(ctx, b.client, []string{key},
		now.UnixMilli(),
		rule.Window.Milliseconds(),
		rule.Max,
		member,
	).Slice()
	if err != nil {
		return Result{}, fmt.Errorf("run sliding window script: %w", err)
	}
	if len(raw) != 2 {
		return Result{}, fmt.Errorf("unexpected sliding window reply: %v", raw)
	}

	allowed, err := toInt64(raw[0])
	if err != nil {
		return Result{}, err
	}
	retryMS, err := toInt64(raw[1])
	if err != nil {
		return Result{}, err
	}

	if allowed == 1 {
		return Result{Allowed: true}, nil
	}
	return Result{Allowed: false, RetryAfter: time.Duration(retryMS) * time.Millisecond}, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected sliding window value %T", v)
	}
}
