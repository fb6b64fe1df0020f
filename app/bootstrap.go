package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"account-service/internal/account"
	"account-service/internal/auth"
	"account-service/internal/db"
	"account-service/internal/maintenance"
	"account-service/internal/notify"
	"account-service/internal/observability"
	"account-service/internal/reset"
	"account-service/internal/user"
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
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

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

	store := user.NewPostgresStore(database)

	var redisClient *redis.Client
	var denylist auth.Denylist
	var pgDenylist *auth.PostgresDenylist
	switch envOrDefault("TOKEN_DENYLIST_BACKEND", "postgres") {
	case "memory":
		denylist = auth.NewMemoryDenylist()
	case "redis":
		redisURL, err := mustEnv("REDIS_URL")
		if err != nil {
			_ = database.Close()
			return nil, err
		}
		redisOptions, err := redis.ParseURL(redisURL)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(redisOptions)
		denylist = auth.NewRedisDenylist(redisClient)
	default:
		pgDenylist = auth.NewPostgresDenylist(database)
		denylist = pgDenylist
	}

	tokenService := auth.NewService(store, denylist, jwtSecret)
	tokenService.WithTokenTTLs(
		envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 15),
		envHoursOrDefault("REFRESH_TOKEN_TTL_HOURS", 168),
	)

	codec := reset.NewCodec(store, jwtSecret, envHoursOrDefault("RESET_TOKEN_TTL_HOURS", 72))

	var sender notify.Sender = notify.NewLogSender(logger)
	if apiKey := strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")); apiKey != "" {
		sender = notify.NewSendgridSender(
			apiKey,
			envOrDefault("EMAIL_SENDER_NAME", "Account Service"),
			envOrDefault("EMAIL_SENDER", "no-reply@localhost"),
		)
	}

	accounts := account.NewService(
		store,
		codec,
		sender,
		logger,
		envOrDefault("RESET_URL_BASE", "http://localhost:3000/password-reset"),
	)
	accountHandler := account.NewHandler(accounts, tokenService)

	cleanupHandler := maintenance.NewCleanupHandler(
		pgDenylist,
		logger,
		os.Getenv("CRON_SECRET"),
		envIntOrDefault("AUTH_CLEANUP_BATCH_SIZE", 500),
	)

	loginLimiter := auth.NewLoginRateLimiter(
		envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 10),
		envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
	)

	guard := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(tokenService, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", accountHandler.Register)
	mux.Handle("POST /auth/login", loginLimiter.Middleware(http.HandlerFunc(accountHandler.Login)))
	mux.HandleFunc("POST /auth/verify", accountHandler.Verify)
	mux.HandleFunc("POST /auth/refresh", accountHandler.Refresh)
	mux.HandleFunc("POST /auth/revoke", accountHandler.Revoke)
	mux.HandleFunc("POST /auth/password/reset", accountHandler.RequestPasswordReset)
	mux.HandleFunc("POST /auth/password/set", accountHandler.PasswordSet)
	mux.Handle("POST /auth/password/change", guard(accountHandler.PasswordChange))
	mux.Handle("GET /me", guard(accountHandler.Me))
	mux.Handle("PATCH /me", guard(accountHandler.UpdateMe))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
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

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
