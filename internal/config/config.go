// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// devSecret signs tokens when JWT_SECRET is unset. Only allowed outside
// production.
const devSecret = "splitroom-dev-secret"

// Config holds server settings.
type Config struct {
	Port          int
	DBPath        string
	LogLevel      string
	LogFormat     string // "text" or "json"
	JWTSecret     string
	TokenTTL      time.Duration
	RedisURL      string // empty uses the in-process feed
	EnableMetrics bool
	Env           string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; envPath overrides its location.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Missing .env is fine
		_ = godotenv.Load()
	}

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}

	ttl, err := getEnvDuration("TOKEN_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	metrics, err := getEnvBool("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:          port,
		DBPath:        getEnv("DB_PATH", "./data/splitroom.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      ttl,
		RedisURL:      os.Getenv("REDIS_URL"),
		EnableMetrics: metrics,
		Env:           getEnv("APP_ENV", "development"),
	}

	if cfg.JWTSecret == "" && cfg.Env != "production" {
		cfg.JWTSecret = devSecret
	}

	return cfg, cfg.Validate()
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive: %s", c.TokenTTL))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json: %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
