package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/entitykit/entityauth/pkg/api"
	"github.com/entitykit/entityauth/pkg/audit"
	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/config"
	"github.com/entitykit/entityauth/pkg/middleware"
	"github.com/entitykit/entityauth/pkg/observability"
	"github.com/entitykit/entityauth/pkg/orgs"
	"github.com/entitykit/entityauth/pkg/session"
	"github.com/entitykit/entityauth/pkg/sso"
	"github.com/entitykit/entityauth/pkg/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "entityauthd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("starting entityauthd")

	db, err := postgres.Connect(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(context.Background(), db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store := postgres.NewStore(db)
	directory := orgs.NewPostgresService(db)

	// Redis is optional: without it the server skips the snapshot cache and
	// rate limiting (config validation already requires it when rate
	// limiting is enabled).
	var cache *postgres.RedisClient
	if cfg.Storage.RedisURL != "" {
		cache, err = postgres.NewRedisClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer cache.Close()
		logger.Info("redis snapshot cache enabled")
	}

	registry, err := sso.LoadRegistry(cfg.SSO.ProvidersFile)
	if err != nil {
		return fmt.Errorf("failed to load provider registry: %w", err)
	}
	logger.WithField("providers", len(registry.Enabled())).Info("provider registry loaded")

	issuer := auth.NewTokenIssuer([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenIssuer, cfg.Auth.AccessTokenTTL)

	hub := session.NewHub()
	sessions := session.NewService(store, directory, cache, issuer, hub, logger)
	sessions.SetSessionTTL(cfg.Auth.SessionTTL)

	auditLogger := audit.NewDBLogger(db, logger)

	sweeper := session.NewSweeper(store, logger, cfg.Auth.SweepSchedule, cfg.Auth.SweepRetention)
	sweeper.AddJob("audit cleanup", func(ctx context.Context) {
		deleted, err := auditLogger.Cleanup(ctx, cfg.Observability.AuditRetention)
		if err != nil {
			logger.WithError(err).Error("audit cleanup failed")
			return
		}
		if deleted > 0 {
			logger.WithField("deleted", deleted).Info("audit cleanup completed")
		}
	})
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start session sweeper: %w", err)
	}

	var rateLimiter, signInRateLimiter *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled && cache != nil {
		limiter := middleware.NewRateLimiter(cache.Client(), &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerMinute,
			WindowDuration:    time.Minute,
		}, "ratelimit")
		rateLimiter = middleware.NewRateLimitMiddleware(limiter, logger)

		signInLimiter := middleware.NewRateLimiter(cache.Client(), &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.SignInPerMinute,
			WindowDuration:    time.Minute,
		}, "ratelimit:signin")
		signInRateLimiter = middleware.NewRateLimitMiddleware(signInLimiter, logger)
	}

	var health *observability.HealthChecker
	if cache != nil {
		health = observability.NewHealthChecker(db, cache.Client())
	} else {
		health = observability.NewHealthChecker(db, nil)
	}

	var metricsRegistry *prometheus.Registry
	if cfg.Observability.MetricsEnabled {
		metricsRegistry = prometheus.NewRegistry()
	}

	server := api.NewServer(api.Config{
		Sessions:          sessions,
		Directory:         directory,
		Issuer:            issuer,
		SSOHandlers:       sso.NewHandlers(registry, store, sessions, logger),
		HealthChecker:     health,
		RateLimiter:       rateLimiter,
		SignInRateLimiter: signInRateLimiter,
		Audit:             audit.NewMiddleware(auditLogger),
		AuditLog:          auditLogger,
		Registry:          metricsRegistry,
		Logger:            logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		sweeper.Stop()
		auditLogger.Close()
		return nil
	})

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}()

	return shutdown.WaitForShutdown()
}
