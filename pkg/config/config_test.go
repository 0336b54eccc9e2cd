package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if !cfg.DB.IsSQLite() {
		t.Fatalf("expected sqlite default driver, got %q", cfg.DB.Driver)
	}
	if cfg.DB.DSN != "file::memory:?cache=shared" {
		t.Fatalf("unexpected default dsn %q", cfg.DB.DSN)
	}
	if cfg.Ledger.SuperAdminID != "admin01" {
		t.Fatalf("unexpected super admin id %q", cfg.Ledger.SuperAdminID)
	}
	if cfg.Ledger.GuestPassDailyMax != 5 {
		t.Fatalf("expected guest pass limit 5, got %d", cfg.Ledger.GuestPassDailyMax)
	}
	if got := cfg.JWT.SessionTTL(); got != 60*time.Minute {
		t.Fatalf("expected session ttl 60m, got %v", got)
	}
	if cfg.Insights.Enabled() {
		t.Fatal("expected insights to be disabled without an api key")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported driver to fail")
	}
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvLedgerTimezone, "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid timezone to fail")
	}
}

func TestLedgerLocation(t *testing.T) {
	loc, err := LedgerConfig{}.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC fallback, got %v (%v)", loc, err)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvJWTIssuer, "canteen")
	t.Setenv(EnvJWTExpMins, "60")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
