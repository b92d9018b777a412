package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir moves into an empty directory so no stray .env or config.yaml is picked up.
func chdir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

// clearEnv blanks every variable Load binds. Empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(strings.ToUpper(key), "")
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "./dev.db" || cfg.StoreBackend != BackendSQLite {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LowStockPercent != 20 || cfg.AlertInterval != time.Minute {
		t.Fatalf("unexpected alert defaults: %+v", cfg)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected dev environment")
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("dev log format = %q, want console", cfg.LogFormat)
	}
	if len(cfg.Warnings()) != 1 {
		t.Fatalf("expected a missing secret warning, got %v", cfg.Warnings())
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t)
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "REST")
	t.Setenv("REST_URL", "https://example.test")
	t.Setenv("REST_API_KEY", "anon")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("ALERT_INTERVAL", "30s")
	t.Setenv("LOW_STOCK_PERCENT", "12.5")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.StoreBackend != BackendREST || cfg.RESTURL != "https://example.test" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.AlertInterval != 30*time.Second || cfg.LowStockPercent != 12.5 {
		t.Fatalf("unexpected alert config: %+v", cfg)
	}
	if cfg.IsDev() {
		t.Fatalf("production must not be dev")
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("production log format = %q, want json", cfg.LogFormat)
	}
	if w := cfg.Warnings(); len(w) != 0 {
		t.Fatalf("unexpected warnings: %v", w)
	}
}

func TestLoadKeepsExplicitLogFormat(t *testing.T) {
	chdir(t)
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("LogFormat = %q, want the configured console", cfg.LogFormat)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	yaml := "port: \"7000\"\ndb_path: /var/lib/printfleet.db\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/var/lib/printfleet.db" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Port != "7001" {
		t.Fatalf("environment must win over the file, got port %q", cfg.Port)
	}
}

func TestLoadRejectsInvalidBackend(t *testing.T) {
	chdir(t)
	clearEnv(t)

	t.Setenv("STORE_BACKEND", "rest")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for rest backend without REST_URL")
	}

	t.Setenv("STORE_BACKEND", "mongo")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
