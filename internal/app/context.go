package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/buddyup/internal/auth"
	"github.com/oggyb/buddyup/internal/cache"
	"github.com/oggyb/buddyup/internal/config"
	"github.com/oggyb/buddyup/internal/ratelimit"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Tokens     *auth.Tokens
	Limiter    *ratelimit.Guard
}

// New creates a new AppContext. The rate limiter keeps its windows in Redis
// when RATE_LIMIT_BACKEND=redis, otherwise in process memory.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	if logger == nil {
		logger = slog.Default()
	}

	var backend ratelimit.Backend = ratelimit.NewMemoryBackend()
	if cfg.RateLimit.Backend == "redis" && rdb != nil {
		backend = ratelimit.NewRedisBackend(rdb.Client)
	}

	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Tokens:     auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Limiter:    ratelimit.NewGuard(backend, RateRules(cfg), logger),
	}
}

// RateRules maps the configured windows onto limiter actions.
func RateRules(cfg *config.Config) map[ratelimit.Action]ratelimit.Rule {
	rule := func(r config.RateRule) ratelimit.Rule {
		return ratelimit.Rule{Max: r.Max, Window: r.Window}
	}
	return map[ratelimit.Action]ratelimit.Rule{
		ratelimit.ActionSwipe:         rule(cfg.RateLimit.Swipe),
		ratelimit.ActionSuperLike:     rule(cfg.RateLimit.SuperLike),
		ratelimit.ActionMessageBurst:  rule(cfg.RateLimit.MessageBurst),
		ratelimit.ActionMessageMinute: rule(cfg.RateLimit.MessageMinute),
	}
}
