package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/buddyup/internal/config"
)

const (
	LikeCountTTL   = time.Hour
	CategorySetTTL = 10 * time.Minute
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForLikeCount generates Redis key for a user's liked-you count
func (c *RedisCache) KeyForLikeCount(userID string) string {
	return fmt.Sprintf("likes:count:%s", userID)
}

func (c *RedisCache) KeyForCategories(userID string) string {
	return fmt.Sprintf("categories:active:%s", userID)
}

func (c *RedisCache) SetLikeCount(ctx context.Context, userID string, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, LikeCountTTL).Err()
}

// GetLikeCount returns the cached count and whether it was present.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (int64, bool, error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, LikeCountTTL).Err()
	return n, true, nil
}

func (c *RedisCache) InvalidateLikeCount(ctx context.Context, userID string) error {
	return c.Del(ctx, c.KeyForLikeCount(userID))
}

// SetCategories caches a user's active category ids as a comma separated list.
// An empty set is stored as "" so a miss and "no categories" stay distinct.
func (c *RedisCache) SetCategories(ctx context.Context, userID string, ids []uint) error {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return c.Client.Set(ctx, c.KeyForCategories(userID), strings.Join(parts, ","), CategorySetTTL).Err()
}

// GetCategories returns the cached active category ids and whether they were present.
func (c *RedisCache) GetCategories(ctx context.Context, userID string) ([]uint, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForCategories(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	if val == "" {
		return []uint{}, true, nil
	}

	parts := strings.Split(val, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			// corrupt entry, treat as a miss
			return nil, false, nil
		}
		ids = append(ids, uint(n))
	}
	return ids, true, nil
}

func (c *RedisCache) InvalidateCategories(ctx context.Context, userID string) error {
	return c.Del(ctx, c.KeyForCategories(userID))
}
