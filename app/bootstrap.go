// Package app assembles the service: configuration, storage, middleware
// chain, and routes. It is shared by the server binary and the serverless
// entry point.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"auth-api/internal/attempt"
	"auth-api/internal/audit"
	"auth-api/internal/auth"
	"auth-api/internal/config"
	"auth-api/internal/db"
	"auth-api/internal/maintenance"
	"auth-api/internal/observability"
	"auth-api/internal/sanitize"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	cfg, err := config.Load(options.LoadDotEnv)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(10)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(30 * time.Minute)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(context.Background(), database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	var redisClient *redis.Client
	var attempts attempt.Store
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		attempts = attempt.NewRedis(redisClient, cfg.MaxLoginAttempts, cfg.LockoutDuration)
	} else {
		attempts = attempt.NewMemory(cfg.MaxLoginAttempts, cfg.LockoutDuration)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	repo := auth.NewRepository(database)
	service := auth.NewService(repo, attempts, tokens, auth.BcryptHasher{}, audit.NewLogSink(logger)).
		WithBlockedIPs(cfg.BlockedIPs)
	handler := auth.NewHandler(service)

	limiter := auth.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	cleanupHandler := maintenance.NewCleanupHandler(attempts, logger, cfg.CronSecret)

	guard := func(next http.Handler) http.Handler {
		return limiter.Middleware(sanitize.Middleware(next))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /auth/register", guard(http.HandlerFunc(handler.Register)))
	mux.Handle("POST /auth/login", guard(http.HandlerFunc(handler.Login)))
	mux.Handle("GET /auth/me", auth.Middleware(tokens, http.HandlerFunc(handler.Me)))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database))

	wrapped := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: wrapped,
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
