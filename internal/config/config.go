package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendSQLite = "sqlite"
	BackendREST   = "rest"
)

// Config holds application configuration sourced from an optional config file and
// environment variables.
type Config struct {
	Port            string        `mapstructure:"port"`
	DBPath          string        `mapstructure:"db_path"`
	SessionSecret   string        `mapstructure:"session_secret"`
	StoreBackend    string        `mapstructure:"store_backend"`
	RESTURL         string        `mapstructure:"rest_url"`
	RESTAPIKey      string        `mapstructure:"rest_api_key"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	LowStockPercent float64       `mapstructure:"low_stock_percent"`
	AlertInterval   time.Duration `mapstructure:"alert_interval"`
	Env             string        `mapstructure:"app_env"`
	SeedAccount     string        `mapstructure:"seed_account"`
}

var defaults = map[string]any{
	"port":              "8080",
	"db_path":           "./dev.db",
	"session_secret":    "",
	"store_backend":     BackendSQLite,
	"rest_url":          "",
	"rest_api_key":      "",
	"log_level":         "info",
	"log_format":        "",
	"low_stock_percent": 20.0,
	"alert_interval":    time.Minute,
	"app_env":           "dev",
	"seed_account":      "",
}

// Load reads .env, then config.yaml from . or ./configs, then the environment. Later
// sources win.
func Load() (Config, error) {
	// Best-effort: production injects real environment variables.
	_ = loadDotEnv(".env")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if cfg.IsDev() {
			cfg.LogFormat = "console"
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case BackendREST:
		if c.RESTURL == "" {
			return errors.New("REST_URL is required when STORE_BACKEND=rest")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.LowStockPercent < 0 || c.LowStockPercent > 100 {
		return fmt.Errorf("LOW_STOCK_PERCENT must be between 0 and 100, got %v", c.LowStockPercent)
	}
	if c.AlertInterval <= 0 {
		return fmt.Errorf("ALERT_INTERVAL must be positive, got %s", c.AlertInterval)
	}
	return nil
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == "" || strings.EqualFold(c.Env, "dev") || strings.EqualFold(c.Env, "development")
}

// Warnings lists settings that are allowed but unsafe.
func (c Config) Warnings() []string {
	var out []string
	if c.SessionSecret == "" {
		out = append(out, "SESSION_SECRET is not set; account tokens use an insecure development secret")
	}
	if c.StoreBackend == BackendREST && c.RESTAPIKey == "" {
		out = append(out, "REST_API_KEY is not set")
	}
	return out
}
