package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/buddyup/internal/cache"
	"github.com/oggyb/buddyup/internal/config"
	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/logger"
	"github.com/oggyb/buddyup/internal/ratelimit"
)

func TestRateRules(t *testing.T) {
	cfg := config.New()
	cfg.RateLimit.Swipe = config.RateRule{Max: 7, Window: time.Minute}

	rules := RateRules(cfg)
	assert.Equal(t, ratelimit.Rule{Max: 7, Window: time.Minute}, rules[ratelimit.ActionSwipe])
	assert.Len(t, rules, 4)
}

func TestNewUsesRedisBackendWhenConfigured(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.RateLimit.Backend = "redis"
	cfg.RateLimit.Swipe = config.RateRule{Max: 1, Window: time.Minute}

	appCtx := New(cfg, nil, cache.NewRedisCache(cfg), logger.Discard())

	ctx := context.Background()
	require.NoError(t, appCtx.Limiter.Allow(ctx, "u1", ratelimit.ActionSwipe))

	err := appCtx.Limiter.Allow(ctx, "u1", ratelimit.ActionSwipe)
	_, limited := domain.IsRateLimited(err)
	assert.True(t, limited)

	// the window lives in redis
	assert.NotEmpty(t, mr.Keys())
}

func TestNewIssuesVerifiableTokens(t *testing.T) {
	cfg := config.New()
	cfg.Auth.JWTSecret = "test-secret"
	appCtx := New(cfg, nil, nil, nil)

	tok, err := appCtx.Tokens.Issue("u1")
	require.NoError(t, err)
	id, err := appCtx.Tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}
