package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"fieldserve-api/internal/auth"
	"fieldserve-api/internal/config"
	"fieldserve-api/internal/db"
	"fieldserve-api/internal/directory"
	"fieldserve-api/internal/httpsec"
	"fieldserve-api/internal/maintenance"
	"fieldserve-api/internal/observability"
	"fieldserve-api/internal/ratelimit"
)

type Options struct {
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Config  *config.Config
	Logger  *observability.Logger
	Close   func() error
}

// Build wires the request pipeline: recovery -> request logging -> security
// headers -> rate limiting -> routes, with CSRF on mutating routes and bearer
// auth on protected ones.
func Build(options Options) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	guard := auth.NewCSRFGuard(cfg.CSRFTTL)

	var attempts auth.AttemptStore
	var pgAttempts *auth.PostgresAttemptStore
	switch cfg.AttemptStoreBackend {
	case "memory":
		attempts = auth.NewMemoryAttemptStore(cfg.LoginMaxFailures, cfg.LoginWindow, cfg.LoginLockFor)
	default:
		pgAttempts = auth.NewPostgresAttemptStore(database, cfg.LoginMaxFailures, cfg.LoginWindow, cfg.LoginLockFor)
		attempts = pgAttempts
	}

	dir := directory.NewRepository(database)
	if err := dir.SeedAdmin(context.Background(), cfg.AdminIdentity, cfg.AdminPassword); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	service := auth.NewService(dir, attempts, tokens)
	handler := auth.NewHandler(service, guard, cfg.MaxBodyBytes)

	var counters ratelimit.CounterStore
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		counters = ratelimit.NewRedisCounterStore(redisClient)
	} else {
		counters = ratelimit.NewMemoryCounterStore()
	}
	limiter := ratelimit.NewLimiter(counters, cfg.RateLimitMax, cfg.RateLimitWindow)
	if cfg.RateLimitFailOpen {
		logger.Warn("rate_limit_fail_open_enabled", map[string]any{
			"note": "counter store faults will not throttle traffic",
		})
	}

	cleanup := maintenance.NewCleanupHandler(pgAttempts, logger, cfg.CronSecret, cfg.AttemptRetention, cfg.CleanupBatchSize)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler(database))
	mux.HandleFunc("GET /auth/csrf", handler.CSRFToken)
	mux.Handle("POST /auth/login", handler.RequireCSRF(http.HandlerFunc(handler.Login)))
	mux.Handle("GET /auth/me", auth.Middleware(tokens, logger, http.HandlerFunc(handler.Me)))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanup.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanup.Handle)

	var pipeline http.Handler = mux
	pipeline = limiter.Middleware(cfg.RateLimitFailOpen, pipeline)
	pipeline = httpsec.SecurityHeaders(pipeline)
	pipeline = observability.RequestLoggingMiddleware(logger, pipeline)
	pipeline = observability.RecoverMiddleware(logger, pipeline)

	return &Runtime{
		Handler: pipeline,
		Config:  cfg,
		Logger:  logger,
		Close: func() error {
			observability.FlushSentry()
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
