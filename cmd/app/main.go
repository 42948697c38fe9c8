// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"press-subscription/internal/config"
	"press-subscription/internal/domain/ports/adapter"
	"press-subscription/internal/domain/ports/repository"
	"press-subscription/internal/infra/api"
	"press-subscription/internal/infra/broker"
	pg "press-subscription/internal/infra/db/postgres"
	"press-subscription/internal/infra/logging"
	"press-subscription/internal/infra/metrics"
	red "press-subscription/internal/infra/redis"
	"press-subscription/internal/infra/sched"
	"press-subscription/internal/infra/security"
	"press-subscription/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = "none"
)

const shutdownGrace = 10 * time.Second

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted PII)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister(nil)
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Error().Err(err).Msg("postgres")
		return err
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := pg.Migrate(ctx, pool, logger); err != nil {
			logger.Error().Err(err).Msg("migrate")
			return err
		}
	}

	// ---- Repositories ----
	var userRepo repository.UserRepository = pg.NewPostgresUserRepo(pool)
	pubRepo := pg.NewPostgresPublicationRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Redis (optional) ----
	var limiter adapter.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; user cache and login throttling disabled")
		} else {
			defer redisClient.Close()
			userRepo = pg.NewUserRepoCacheDecorator(userRepo, redisClient, cfg.Redis.TTL, logger)
			limiter = red.NewRateLimiter(redisClient)
		}
	}

	// ---- Security ----
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := security.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	// ---- Events ----
	events := broker.New(cfg.Broker.URL, cfg.Broker.Exchange, logger)
	defer func() {
		if err := events.Close(); err != nil {
			logger.Warn().Err(err).Msg("broker close")
		}
	}()

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, tm, hasher, tokens, limiter, usecase.LoginLimit{
		Attempts: cfg.RateLimit.LoginAttempts,
		Window:   cfg.RateLimit.LoginWindow,
	}, logger, cfg.Runtime.Dev)
	pubUC := usecase.NewPublicationUseCase(pubRepo, tm, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, pubRepo, tm, events, logger)

	// ---- HTTP ----
	srv := api.NewServer(userUC, pubUC, subUC, api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Ping:           pool.Ping,
	}, logger)

	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.ListenAndServe(gctx, fmt.Sprintf(":%d", cfg.Server.Port), srv.Routes(), shutdownGrace, logger)
	})
	g.Go(func() error {
		return api.ListenAndServe(gctx, fmt.Sprintf(":%d", cfg.Server.AdminPort), adminMux, shutdownGrace, logger)
	})
	g.Go(func() error { return pg.ReportPoolStats(gctx, pool, 15*time.Second) })
	g.Go(func() error { return sched.NewStatsWorker(time.Minute, subUC, logger).Run(gctx) })

	logger.Info().
		Int("port", cfg.Server.Port).
		Int("admin_port", cfg.Server.AdminPort).
		Str("version", version).
		Msg("press-subscription started")

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
