package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BindAddr           string
	Port               string
	CatalogPath        string
	StockTracking      bool
	SnapshotDir        string
	DatabaseURL        string
	CORSAllowedOrigins []string
	SessionIdleTimeout time.Duration
	ShopName           string
	ShopAddress        string
	ShopPhone          string
	CurrencyLabel      string
	AppEnv             string
	LogLevel           string
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}

// Development reports whether APP_ENV is development.
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BindAddr:      getEnv("BIND_ADDR", "127.0.0.1"),
		Port:          getEnv("PORT", "8081"),
		CatalogPath:   getEnv("CATALOG_PATH", "Product List.xlsx"),
		SnapshotDir:   getEnv("SNAPSHOT_DIR", "snapshots"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		ShopName:      getEnv("SHOP_NAME", "Anandhaa Crackers"),
		ShopAddress:   os.Getenv("SHOP_ADDRESS"),
		ShopPhone:     os.Getenv("SHOP_PHONE"),
		CurrencyLabel: getEnv("CURRENCY_LABEL", "Rs."),
		AppEnv:        getEnv("APP_ENV", "production"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.StockTracking, err = strconv.ParseBool(getEnv("STOCK_TRACKING", "false")); err != nil {
		return nil, fmt.Errorf("STOCK_TRACKING: %w", err)
	}
	if cfg.SessionIdleTimeout, err = time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", "12h")); err != nil {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT: %w", err)
	}
	if cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT: must be positive, got %s", cfg.SessionIdleTimeout)
	}
	if p, err := strconv.Atoi(cfg.Port); err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("PORT: invalid port %q", cfg.Port)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LOG_LEVEL: unknown level %q", cfg.LogLevel)
	}

	origins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
