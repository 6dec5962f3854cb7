package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/flagquiz/flagquiz-api/internal/config"
	"github.com/flagquiz/flagquiz-api/internal/db/repository"
	"github.com/flagquiz/flagquiz-api/internal/logging"
	"github.com/flagquiz/flagquiz-api/internal/ranking"
	"github.com/flagquiz/flagquiz-api/internal/server"
	"github.com/flagquiz/flagquiz-api/internal/session"
	"github.com/flagquiz/flagquiz-api/pkg/http/ratelimit"
	ws "github.com/flagquiz/flagquiz-api/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	broadcaster     *ranking.Broadcaster
	retentionWorker *ranking.RetentionWorker
	limiter         *ratelimit.Limiter
	bgCancels       []context.CancelFunc
}

// New bootstraps logger, Postgres, Redis, the ranking service and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	sessions, err := session.NewManager([]byte(cfg.Security.SessionSecret), session.Options{
		MaxAge:    cfg.Session.MaxAge,
		ClockSkew: cfg.Session.ClockSkew,
	})
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := repository.NewRankingRepository(pool)
	svc := ranking.NewService(
		sessions,
		store,
		ranking.NewCache(redisClient, cfg.Ranking.CacheTTL),
		ranking.NewRedisPublisher(redisClient, cfg.Ranking.PubSubChannel),
		ranking.NewMetrics(registry),
		ranking.ServiceOptions{
			DailyLimit:   cfg.Ranking.DailyLimit,
			AllTimeLimit: cfg.Ranking.AllTimeLimit,
			DayOffset:    cfg.Ranking.DayOffset,
		},
		logger,
	)

	hub := ws.NewHub(logger)
	limiter := ratelimit.New(ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	})

	apiServer := server.NewHTTPServer(cfg, logger, server.Deps{
		Ranking:  ranking.NewHTTPHandler(svc, hub, server.NewUpgrader(cfg.CORS), logger),
		Limiter:  limiter,
		Gatherer: registry,
		Checks: map[string]server.Pinger{
			"postgres": server.PingFunc(pool.Ping),
			"redis":    server.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},
	})

	return &Application{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redis:           redisClient,
		http:            apiServer,
		broadcaster:     ranking.NewBroadcaster(redisClient, hub, cfg.Ranking.PubSubChannel, logger),
		retentionWorker: ranking.NewRetentionWorker(store, svc, cfg.Ranking.RetentionInterval, cfg.Ranking.DailyRetention, logger),
		limiter:         limiter,
		bgCancels:       make([]context.CancelFunc, 0, 3),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	a.goWorker(ctx, "ranking broadcaster", a.broadcaster.Run)
	a.goWorker(ctx, "ranking retention worker", a.retentionWorker.Run)
	a.goWorker(ctx, "rate limit sweeper", func(ctx context.Context) error {
		return a.limiter.RunSweeper(ctx, a.cfg.RateLimit.SweepInterval, a.logger)
	})
}

func (a *Application) goWorker(ctx context.Context, name string, run func(context.Context) error) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Msg(name + " stopped")
		}
	}()
}
