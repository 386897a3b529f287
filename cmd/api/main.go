package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-sewa/internal/analytics"
	"github.com/noah-isme/backend-sewa/internal/audit"
	"github.com/noah-isme/backend-sewa/internal/auth"
	"github.com/noah-isme/backend-sewa/internal/cart"
	"github.com/noah-isme/backend-sewa/internal/checkout"
	"github.com/noah-isme/backend-sewa/internal/client"
	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/config"
	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/discount"
	"github.com/noah-isme/backend-sewa/internal/events"
	"github.com/noah-isme/backend-sewa/internal/health"
	"github.com/noah-isme/backend-sewa/internal/inventory"
	"github.com/noah-isme/backend-sewa/internal/notify"
	"github.com/noah-isme/backend-sewa/internal/obs"
	"github.com/noah-isme/backend-sewa/internal/order"
	"github.com/noah-isme/backend-sewa/internal/ratelimit"
	"github.com/noah-isme/backend-sewa/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "sewa")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "sewa-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if envBool("DB_MIGRATE", true) {
		m, err := migrate.New(envOrDefault("DB_MIGRATIONS_URL", "file://migrations"), migrateURL(cfg.DatabaseURL))
		if err != nil {
			logger.Fatal().Err(err).Msg("open migrations")
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "sewa-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	queries := db.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	codec := order.Codec{Key: cfg.OrderCodeKey}
	validate := validator.New()

	emailNotifier := notify.EmailNotifier{
		Mail:    common.NopEmailSender{},
		Enabled: cfg.EmailEnabled,
		From:    cfg.EmailFrom,
	}
	bus := &events.Bus{
		Store:     queries,
		Notifiers: []events.Notifier{emailNotifier},
	}

	discountSvc := &discount.Service{Q: queries}
	discountHandler := &discount.Handler{Q: queries, Svc: discountSvc}

	inventorySvc := &inventory.Service{
		Q:     queries,
		Cache: inventory.NewCache(redisClient, cfg.CatalogCacheTTL),
	}
	inventoryHandler := &inventory.Handler{Svc: inventorySvc, Validate: validate}

	clientSvc := &client.Service{Q: queries}
	clientHandler := &client.Handler{Service: clientSvc}

	cartSvc := &cart.Service{Q: queries, Discounts: discountSvc, TTL: cfg.CartTTL}
	cartHandler := &cart.Handler{Svc: cartSvc}

	checkoutSvc := &checkout.Service{Q: queries, Pool: pool, Events: bus, Codec: codec}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	orderSvc := &order.Service{
		Pool:              pool,
		Q:                 queries,
		Events:            bus,
		Codec:             codec,
		LatePenaltyPerDay: cfg.LatePenaltyPerDay,
	}
	orderHandler := &order.Handler{Q: queries, Svc: orderSvc, Codec: codec}
	orderAdmin := &order.AdminHandler{Q: queries, Svc: orderSvc}

	analyticsSvc := &analytics.Service{Q: queries, R: redisClient, TTL: cfg.AnalyticsCacheTTL}
	analyticsHandler := &analytics.Handler{Svc: analyticsSvc}

	auditHandler := &audit.Handler{Q: queries, Codec: codec}

	authMiddleware := auth.Middleware{Verifier: auth.Verifier{
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		ClockSkew: 30 * time.Second,
	}}

	idem := common.Idem{R: redisClient, TTL: envDurationMillis("IDEMPOTENCY_TTL_MS", 86400000)}

	validateLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:discount:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: time.Minute,
			Max:    envInt("DISCOUNT_VALIDATE_RATE_MAX", 30),
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limit") },
	}

	limiterStore, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "rl:global"})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	globalRate, err := limiter.NewRateFromFormatted(envOrDefault("GLOBAL_RATE_LIMIT", "300-M"))
	if err != nil {
		logger.Fatal().Err(err).Msg("parse global rate limit")
	}
	globalLimiter := limiterstdlib.NewMiddleware(limiter.New(limiterStore, globalRate))

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:                envBool("SECURE_HEADERS", true),
		EnableHSTS:            envBool("SECURE_HSTS", false),
		HSTSIncludeSubdomains: true,
	}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("SECURE_MAX_BODY_BYTES", 1<<20))}.Middleware)
	r.Use(globalLimiter.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", true)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/items", inventoryHandler.List)
		v.Get("/items/{itemId}", inventoryHandler.Get)
		v.Get("/items/{itemId}/availability", inventoryHandler.Availability)

		v.With(validateLimiter.Middleware).Post("/discounts/validate", discountHandler.Validate)

		v.Route("/carts", func(c chi.Router) {
			c.Post("/", cartHandler.Ensure)
			c.Get("/{cartId}", cartHandler.Get)
			c.Put("/{cartId}/window", cartHandler.SetWindow)
			c.Post("/{cartId}/items", cartHandler.AddItem)
			c.Patch("/{cartId}/items/{itemId}", cartHandler.UpdateQty)
			c.Delete("/{cartId}/items/{itemId}", cartHandler.RemoveItem)
			c.Post("/{cartId}/discount", cartHandler.ApplyDiscount)
			c.Delete("/{cartId}/discount", cartHandler.RemoveDiscount)
		})

		v.With(idem.Middleware).Post("/checkout", checkoutHandler.Submit)

		v.Get("/orders/{code}", orderHandler.Get)
		v.Post("/orders/{code}/cancel", orderHandler.Cancel)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAdmin)
			admin.Use(security.CSRF{}.Middleware)

			admin.Post("/items", inventoryHandler.Create)
			admin.Put("/items/{itemId}", inventoryHandler.Update)

			admin.Get("/clients", clientHandler.Search)
			admin.Get("/clients/top", clientHandler.Top)
			admin.Post("/clients", clientHandler.Create)
			admin.Get("/clients/{clientId}", clientHandler.Get)
			admin.Patch("/clients/{clientId}", clientHandler.Update)

			admin.Post("/discounts", discountHandler.Create)
			admin.Get("/discounts", discountHandler.List)
			admin.Patch("/discounts/{code}", discountHandler.Update)
			admin.Get("/discounts/usage", discountHandler.Usage)

			admin.Get("/orders", orderHandler.List)
			admin.Patch("/orders/{code}/status", orderAdmin.PatchStatus)
			admin.With(idem.Middleware).Post("/orders/{code}/return", orderAdmin.Return)
			admin.Post("/orders/{code}/payments", orderAdmin.Payment)
			admin.Get("/orders/{code}/audit", orderAdmin.AuditLog)

			admin.Get("/audit", auditHandler.List)

			admin.Get("/analytics/discounts", analyticsHandler.Discounts)
			admin.Get("/analytics/top-clients", analyticsHandler.TopClients)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

// migrateURL maps a postgres DSN onto the scheme registered by the
// golang-migrate pgx/v5 driver.
func migrateURL(dsn string) string {
	if strings.HasPrefix(dsn, "postgresql://") {
		return "pgx5://" + strings.TrimPrefix(dsn, "postgresql://")
	}
	if strings.HasPrefix(dsn, "postgres://") {
		return "pgx5://" + strings.TrimPrefix(dsn, "postgres://")
	}
	return dsn
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
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

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
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

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
