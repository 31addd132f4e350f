package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/david-shiko/rubik-sub000/internal/app"
	"github.com/david-shiko/rubik-sub000/internal/cache"
	"github.com/david-shiko/rubik-sub000/internal/config"
	"github.com/david-shiko/rubik-sub000/internal/db"
	"github.com/david-shiko/rubik-sub000/internal/logger"
	"github.com/david-shiko/rubik-sub000/internal/scheduler"
	"github.com/david-shiko/rubik-sub000/internal/server"
	"github.com/david-shiko/rubik-sub000/internal/service/match"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}
	sqlDB, err := db.SQLX(database)
	if err != nil {
		log.Error("failed to init sqlx", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(cfg, database, sqlDB, redisCache, log)
	sessions := match.NewSessions(cfg.Matcher.SessionTTL)

	janitor, err := scheduler.NewJanitor(sessions, appCtx.Store, sqlDB, log)
	if err != nil {
		log.Error("failed to init janitor", "err", err)
		return
	}
	if err := janitor.Start(cfg.Matcher.JanitorCron); err != nil {
		log.Error("failed to start janitor", "err", err)
		return
	}
	registrars := []server.Registrar{
		match.NewRegistrar(appCtx, sessions),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, cfg.Matcher.DefaultsPrefix); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)

	// the janitor stops with the server, whichever way it ends
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartGRPCServer(gctx, cfg, log, registrars...)
	})
	g.Go(func() error {
		<-gctx.Done()
		return janitor.Stop()
	})
	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		return
	}
	log.Info("server stopped")
}
