// Command api runs the Click Clean civic platform HTTP server.
//
//	@title						Click Clean Civic API
//	@version					1.0
//	@description				Civic issue reporting, tracking and rewards.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "github.com/clickclean/civic-platform/docs"
	"github.com/clickclean/civic-platform/internal/api"
	"github.com/clickclean/civic-platform/internal/api/handler"
	"github.com/clickclean/civic-platform/internal/core/service"
	mongodb "github.com/clickclean/civic-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/clickclean/civic-platform/internal/infrastructure/db/redis"
	"github.com/clickclean/civic-platform/internal/infrastructure/queue"
	"github.com/clickclean/civic-platform/internal/pkg/config"
	"github.com/clickclean/civic-platform/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "civic-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "civic-api",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		URL:      cfg.Redis.URL,
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	repos := mongodb.NewRepositories(db)
	if err := repos.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}
	stores := redisdb.NewStores(rdb)

	profiles := service.NewProfileService(repos.Profiles, stores.Events, stores.Dedup, logger.Component("profiles"))
	dispatcher := queue.NewDispatcher(cfg.Worker.ProfileWorkers, profiles, logger.Component("dispatcher"))

	auth := service.NewAuthService(service.AuthDeps{
		Users:    repos.Auth,
		Profiles: repos.Profiles,
		Refresh:  stores.Refresh,
		Revoked:  stores.Revoked,
		Events:   stores.Events,
		Jobs:     dispatcher,
	}, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	}, logger.Component("auth"))

	router := api.NewRouter(api.Deps{
		Auth:        auth,
		Events:      stores.Events,
		Profiles:    profiles,
		Issues:      service.NewIssueService(repos.Issues, logger.Component("issues")),
		Training:    service.NewTrainingService(repos.Progress, logger.Component("training")),
		Marketplace: service.NewMarketplaceService(stores.Carts),
		Community:   service.NewCommunityService(repos.Issues, repos.Profiles, repos.Progress, logger.Component("community")),
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }),
			"redis":   handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
		LoginRateLimit: cfg.Auth.LoginRateLimit,
		TrustedProxies: cfg.Auth.TrustedProxies,
		Development:    cfg.IsDevelopment(),
		Logger:         logger.Component("http"),
	})

	g, gctx := errgroup.WithContext(ctx)

	dispatcher.Start(gctx)
	g.Go(func() error {
		dispatcher.Wait()
		return nil
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return router.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}
