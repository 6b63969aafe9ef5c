package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every environment-sourced setting. Load fails fast on the
// values the process cannot run without; everything else falls back to a
// conservative default.
type Config struct {
	DatabaseURL string
	RedisURL    string
	Port        string
	Environment string
	SentryDSN   string
	CronSecret  string

	JWTSecret string
	JWTTTL    time.Duration

	CSRFTTL time.Duration

	LoginMaxFailures int
	LoginLockFor     time.Duration
	LoginWindow      time.Duration

	RateLimitMax      int
	RateLimitWindow   time.Duration
	RateLimitFailOpen bool

	MaxBodyBytes int64

	// AttemptStoreBackend selects where login outcomes live: "postgres"
	// (durable, default) or "memory".
	AttemptStoreBackend string
	AttemptRetention    time.Duration
	CleanupBatchSize    int

	AdminIdentity string
	AdminPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("APP_ENV", "development"),
		SentryDSN:   strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		CronSecret:  strings.TrimSpace(os.Getenv("CRON_SECRET")),

		JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTTTL:    envMinutesOrDefault("JWT_TTL_MINUTES", 15),

		CSRFTTL: envMinutesOrDefault("CSRF_TTL_MINUTES", 60),

		LoginMaxFailures: envIntOrDefault("LOGIN_MAX_FAILURES", 5),
		LoginLockFor:     envMinutesOrDefault("LOGIN_LOCK_MINUTES", 30),
		LoginWindow:      envMinutesOrDefault("LOGIN_WINDOW_MINUTES", 15),

		RateLimitMax:      envIntOrDefault("RATE_LIMIT_MAX", 10),
		RateLimitWindow:   envSecondsOrDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitFailOpen: envBoolOrDefault("RATE_LIMIT_FAIL_OPEN", false),

		MaxBodyBytes: int64(envIntOrDefault("MAX_BODY_BYTES", 1<<20)),

		AttemptStoreBackend: envOrDefault("LOGIN_ATTEMPT_STORE", "postgres"),
		AttemptRetention:    envDaysOrDefault("LOGIN_ATTEMPT_RETENTION_DAYS", 30),
		CleanupBatchSize:    envIntOrDefault("CLEANUP_BATCH_SIZE", 500),

		AdminIdentity: strings.TrimSpace(strings.ToLower(os.Getenv("ADMIN_IDENTITY"))),
		AdminPassword: strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing required env: DATABASE_URL")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("missing required env: JWT_SECRET")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	return nil
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

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}

func envBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
