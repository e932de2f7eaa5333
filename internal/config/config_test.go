package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_DRIVER", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "tcp(localhost:3306)/buddyup")
	assert.Equal(t, MinDislikePenalty, cfg.Ranking.DislikePenalty)
	assert.Equal(t, MinPoolMultiplier, cfg.Ranking.PoolMultiplier)
	assert.Equal(t, 3, cfg.Onboarding.MaxCategories)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.MessageBurst.Window)
}

func TestNewPostgresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "pg")

	cfg := New()

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "host=pg port=5432")
}

func TestNewClampsRankingKnobs(t *testing.T) {
	t.Setenv("DISLIKE_PENALTY", "10")
	t.Setenv("POOL_MULTIPLIER", "1")
	t.Setenv("CATEGORY_FETCH_CONCURRENCY", "-4")

	cfg := New()

	assert.Equal(t, MinDislikePenalty, cfg.Ranking.DislikePenalty)
	assert.Equal(t, MinPoolMultiplier, cfg.Ranking.PoolMultiplier)
	assert.Equal(t, 1, cfg.Ranking.CategoryConcurrency)
}

func TestNewReadsOverrides(t *testing.T) {
	t.Setenv("DISLIKE_PENALTY", "5000")
	t.Setenv("POOL_MULTIPLIER", "5")
	t.Setenv("RATE_SWIPE_MAX", "3")
	t.Setenv("RATE_SWIPE_WINDOW", "10s")
	t.Setenv("LOG_SOURCE", "yes")

	cfg := New()

	assert.Equal(t, 5000, cfg.Ranking.DislikePenalty)
	assert.Equal(t, 5, cfg.Ranking.PoolMultiplier)
	assert.Equal(t, RateRule{Max: 3, Window: 10 * time.Second}, cfg.RateLimit.Swipe)
	assert.True(t, cfg.Log.Source)
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
}

func TestValidateRequiresJWTSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	t.Setenv("APP_ENV", "")
	cfg := New()
	assert.Equal(t, EnvProduction, cfg.App.ENV)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)

	t.Setenv("APP_ENV", "staging")
	assert.ErrorIs(t, New().Validate(), ErrMissingJWTSecret)

	t.Setenv("APP_ENV", EnvDevelopment)
	cfg = New()
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	require.NoError(t, cfg.Validate())
}

func TestValidateAcceptsConfiguredSecret(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "  s3cret  ")

	cfg := New()
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	require.NoError(t, cfg.Validate())
}
