package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/fieldserve")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.JWTTTL != 15*time.Minute {
		t.Fatalf("expected default JWT TTL 15m, got %v", cfg.JWTTTL)
	}
	if cfg.CSRFTTL != time.Hour {
		t.Fatalf("expected default CSRF TTL 1h, got %v", cfg.CSRFTTL)
	}
	if cfg.LoginMaxFailures != 5 {
		t.Fatalf("expected 5 max failures, got %d", cfg.LoginMaxFailures)
	}
	if cfg.LoginLockFor != 30*time.Minute {
		t.Fatalf("expected 30m lock, got %v", cfg.LoginLockFor)
	}
	if cfg.RateLimitMax != 10 || cfg.RateLimitWindow != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %d per %v", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.RateLimitFailOpen {
		t.Fatalf("rate limiting must default to fail-closed")
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("expected 1MiB body ceiling, got %d", cfg.MaxBodyBytes)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/fieldserve")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/fieldserve")
	t.Setenv("JWT_SECRET", "tooshort")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for short JWT_SECRET")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/fieldserve")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("LOGIN_MAX_FAILURES", "3")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "30")
	t.Setenv("RATE_LIMIT_FAIL_OPEN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LoginMaxFailures != 3 {
		t.Fatalf("expected 3 max failures, got %d", cfg.LoginMaxFailures)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("expected 30s window, got %v", cfg.RateLimitWindow)
	}
	if !cfg.RateLimitFailOpen {
		t.Fatalf("expected fail-open override to apply")
	}
}
