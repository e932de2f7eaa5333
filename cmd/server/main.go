package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/buddyup/internal/app"
	"github.com/oggyb/buddyup/internal/cache"
	"github.com/oggyb/buddyup/internal/config"
	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/logger"
	"github.com/oggyb/buddyup/internal/server"
	"github.com/oggyb/buddyup/internal/service/buddyup"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}
	sqlDB, err := database.DB()
	if err != nil {
		log.Error("failed to get db handle", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}

	// Inject logger into app context
	appCtx := app.New(cfg, database, redisCache, log)

	if cfg.App.ENV == config.EnvDevelopment {
		if _, err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	registrars := []server.Registrar{
		buddyup.NewRegistrar(appCtx),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		handler := server.NewHTTPHandler(map[string]server.Check{
			"db":    sqlDB.PingContext,
			"redis": redisCache.Ping,
		})
		return server.StartHTTPServer(ctx, cfg.HTTP.Addr, handler, log)
	})

	g.Go(func() error {
		addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
		log.Info("starting gRPC server", "addr", addr, "env", cfg.App.ENV)
		return server.StartGRPCServer(ctx, cfg, appCtx.Tokens, log, registrars...)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
