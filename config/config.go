// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                 int
	DBPath               string
	Environment          string
	LogLevel             string
	RetentionInterval    time.Duration
	RetentionMonths      int
	RestrictedBatchLimit int
	RulesFile            string
	MetricsEnabled       bool
	CORSOrigins          []string
}

// Load reads .env (if present) and the process environment. Variables
// already set in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:                 getEnvInt("APP_PORT", 8080),
		DBPath:               getEnv("DB_PATH", "./data/payroll.db"),
		Environment:          getEnv("APP_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		RetentionInterval:    getEnvDuration("RETENTION_INTERVAL", 24*time.Hour),
		RetentionMonths:      getEnvInt("RETENTION_MONTHS", 3),
		RestrictedBatchLimit: getEnvInt("RESTRICTED_BATCH_LIMIT", 10),
		RulesFile:            getEnv("RULES_FILE", ""),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		CORSOrigins:          getEnvList("CORS_ORIGINS", []string{"*"}),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("APP_PORT out of range: %d", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.RetentionMonths <= 0 {
		return fmt.Errorf("RETENTION_MONTHS must be positive, got %d", c.RetentionMonths)
	}
	if c.RestrictedBatchLimit <= 0 {
		return fmt.Errorf("RESTRICTED_BATCH_LIMIT must be positive, got %d", c.RestrictedBatchLimit)
	}
	if c.RetentionInterval <= 0 {
		return fmt.Errorf("RETENTION_INTERVAL must be positive, got %s", c.RetentionInterval)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
