package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// MinDislikePenalty keeps left-swiped candidates below every non-negative overlap score.
	MinDislikePenalty = 1000
	MinPoolMultiplier = 3
)

type RateRule struct {
	Max    int
	Window time.Duration
}

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Addr string
	}

	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration
	}

	Ranking struct {
		DislikePenalty      int
		PoolMultiplier      int
		CategoryConcurrency int
		DefaultDeckSize     int
		MaxDeckSize         int
	}

	RateLimit struct {
		Backend       string
		Swipe         RateRule
		SuperLike     RateRule
		MessageBurst  RateRule
		MessageMinute RateRule
	}

	Onboarding struct {
		MaxCategories int
	}
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devJWTSecret = "dev-secret-change-me"
)

// ErrMissingJWTSecret is returned by Validate outside development when no
// signing secret is configured.
var ErrMissingJWTSecret = errors.New("missing jwt secret")

// New loads an optional .env file and reads the configuration from the environment.
func New() *Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", EnvProduction)

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "buddyup")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "buddyup")

		switch cfg.DB.Driver {
		case "postgres":
			cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
			)
		case "sqlite":
			cfg.DB.DSN = getEnvDefault("DB_PATH", "buddyup.db")
		default:
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// metrics + health
	cfg.HTTP.Addr = getEnvDefault("HTTP_ADDR", ":9090")

	// Auth
	// only development gets a built-in secret, see Validate
	cfg.Auth.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if cfg.Auth.JWTSecret == "" && cfg.App.ENV == EnvDevelopment {
		cfg.Auth.JWTSecret = devJWTSecret
	}
	cfg.Auth.TokenTTL = getEnvDuration("JWT_TTL", 7*24*time.Hour)

	// Ranking
	cfg.Ranking.DislikePenalty = getEnvInt("DISLIKE_PENALTY", MinDislikePenalty)
	cfg.Ranking.PoolMultiplier = getEnvInt("POOL_MULTIPLIER", MinPoolMultiplier)
	cfg.Ranking.CategoryConcurrency = getEnvInt("CATEGORY_FETCH_CONCURRENCY", 8)
	cfg.Ranking.DefaultDeckSize = getEnvInt("DECK_SIZE", 20)
	cfg.Ranking.MaxDeckSize = getEnvInt("DECK_MAX_SIZE", 100)

	// Rate limits
	cfg.RateLimit.Backend = strings.ToLower(getEnvDefault("RATE_LIMIT_BACKEND", "memory"))
	cfg.RateLimit.Swipe = RateRule{
		Max:    getEnvInt("RATE_SWIPE_MAX", 60),
		Window: getEnvDuration("RATE_SWIPE_WINDOW", time.Minute),
	}
	cfg.RateLimit.SuperLike = RateRule{
		Max:    getEnvInt("RATE_SUPERLIKE_MAX", 5),
		Window: getEnvDuration("RATE_SUPERLIKE_WINDOW", 24*time.Hour),
	}
	cfg.RateLimit.MessageBurst = RateRule{
		Max:    getEnvInt("RATE_MESSAGE_BURST_MAX", 5),
		Window: getEnvDuration("RATE_MESSAGE_BURST_WINDOW", 10*time.Second),
	}
	cfg.RateLimit.MessageMinute = RateRule{
		Max:    getEnvInt("RATE_MESSAGE_MINUTE_MAX", 30),
		Window: getEnvDuration("RATE_MESSAGE_MINUTE_WINDOW", time.Minute),
	}

	cfg.Onboarding.MaxCategories = getEnvInt("ONBOARDING_MAX_CATEGORIES", 3)

	cfg.normalize()
	return cfg
}

// Validate reports settings the server must not start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when APP_ENV=%s: %w", c.App.ENV, ErrMissingJWTSecret)
	}
	return nil
}

// normalize clamps values whose lower bounds the ranking depends on.
func (c *Config) normalize() {
	if c.Ranking.DislikePenalty < MinDislikePenalty {
		c.Ranking.DislikePenalty = MinDislikePenalty
	}
	if c.Ranking.PoolMultiplier < MinPoolMultiplier {
		c.Ranking.PoolMultiplier = MinPoolMultiplier
	}
	if c.Ranking.CategoryConcurrency <= 0 {
		c.Ranking.CategoryConcurrency = 1
	}
	if c.Ranking.MaxDeckSize <= 0 {
		c.Ranking.MaxDeckSize = 100
	}
	if c.Ranking.DefaultDeckSize <= 0 || c.Ranking.DefaultDeckSize > c.Ranking.MaxDeckSize {
		c.Ranking.DefaultDeckSize = c.Ranking.MaxDeckSize
	}
	if c.Onboarding.MaxCategories <= 0 {
		c.Onboarding.MaxCategories = 3
	}
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
