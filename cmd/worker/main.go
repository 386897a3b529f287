package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/config"
	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/events"
	"github.com/noah-isme/backend-sewa/internal/jobs"
	"github.com/noah-isme/backend-sewa/internal/lock"
	"github.com/noah-isme/backend-sewa/internal/notify"
	"github.com/noah-isme/backend-sewa/internal/obs"
	"github.com/noah-isme/backend-sewa/internal/order"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "sewa"), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, queries := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	cancel()

	bus := &events.Bus{
		Store: queries,
		Notifiers: []events.Notifier{notify.EmailNotifier{
			Mail:    common.NopEmailSender{},
			Enabled: cfg.EmailEnabled,
			From:    cfg.EmailFrom,
		}},
	}
	orderSvc := &order.Service{
		Pool:              pool,
		Q:                 queries,
		Events:            bus,
		Codec:             order.Codec{Key: cfg.OrderCodeKey},
		LatePenaltyPerDay: cfg.LatePenaltyPerDay,
	}

	handler := &jobs.Handler{
		Q:      queries,
		Orders: orderSvc,
		Locker: lock.Locker{R: redisClient},
		Log:    logger,
	}
	mux := asynq.NewServeMux()
	handler.Register(mux)

	redisConn, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis uri for asynq")
	}

	scheduler := asynq.NewScheduler(redisConn, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register("@every "+cfg.ActivationInterval.String(), jobs.NewActivateDueOrdersTask()); err != nil {
		logger.Fatal().Err(err).Msg("register activation schedule")
	}
	if _, err := scheduler.Register("@every "+cfg.CartSweepInterval.String(), jobs.NewSweepExpiredCartsTask()); err != nil {
		logger.Fatal().Err(err).Msg("register cart sweep schedule")
	}
	if _, err := scheduler.Register("@every "+cfg.CartSweepInterval.String(), jobs.NewExpireDiscountsTask()); err != nil {
		logger.Fatal().Err(err).Msg("register discount expiry schedule")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	defer scheduler.Shutdown()

	srv := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 4),
	})

	logger.Info().
		Dur("activation_interval", cfg.ActivationInterval).
		Dur("cart_sweep_interval", cfg.CartSweepInterval).
		Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, *db.Queries) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "sewa-worker"
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool, db.New(pool)
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
