package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the service needs. It is built once at
// startup and injected; nothing reads the environment after Load returns.
type Config struct {
	Port        string
	AppEnv      string
	DatabaseURL string
	RedisURL    string
	SentryDSN   string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	MaxLoginAttempts int
	LockoutDuration  time.Duration
	BlockedIPs       []string

	RateLimitMax    int
	RateLimitWindow time.Duration

	CronSecret string
}

// Load reads the environment (optionally seeded from a .env file) and
// validates the required settings.
func Load(loadDotEnv bool) (Config, error) {
	if loadDotEnv {
		_ = godotenv.Load()
	}

	cfg := Config{
		Port:        envOrDefault("PORT", "8080"),
		AppEnv:      envOrDefault("APP_ENV", "development"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		SentryDSN:   strings.TrimSpace(os.Getenv("SENTRY_DSN")),

		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   envOrDefault("JWT_ISSUER", "auth-api"),
		JWTAudience: envOrDefault("JWT_AUDIENCE", "auth-api-client"),
		TokenTTL:    envMinutesOrDefault("TOKEN_TTL_MINUTES", 60),

		MaxLoginAttempts: envIntOrDefault("LOGIN_MAX_ATTEMPTS", 5),
		LockoutDuration:  envMinutesOrDefault("LOGIN_LOCK_MINUTES", 15),
		BlockedIPs:       envList("BLOCKED_IPS"),

		RateLimitMax:    envIntOrDefault("RATE_LIMIT_MAX", 100),
		RateLimitWindow: envMinutesOrDefault("RATE_LIMIT_WINDOW_MINUTES", 15),

		CronSecret: strings.TrimSpace(os.Getenv("CRON_SECRET")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing required env: DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing required env: JWT_SECRET")
	}
	if len(cfg.JWTSecret) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}

	return cfg, nil
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

func envList(name string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// EnvBoolOrDefault parses common boolean spellings from the environment.
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
