package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "DB_PATH", "APP_ENV", "RETENTION_MONTHS", "RESTRICTED_BATCH_LIMIT", "CORS_ORIGINS", "METRICS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "./data/payroll.db", cfg.DBPath)
	assert.Equal(t, 3, cfg.RetentionMonths)
	assert.Equal(t, 10, cfg.RestrictedBatchLimit)
	assert.Equal(t, 24*time.Hour, cfg.RetentionInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RETENTION_INTERVAL", "6h")
	t.Setenv("RETENTION_MONTHS", "6")
	t.Setenv("CORS_ORIGINS", "https://hr.example.com, https://admin.example.com,")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 6*time.Hour, cfg.RetentionInterval)
	assert.Equal(t, 6, cfg.RetentionMonths)
	assert.Equal(t, []string{"https://hr.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("RETENTION_MONTHS", "-1")
	_, err := Load()
	assert.ErrorContains(t, err, "RETENTION_MONTHS")

	t.Setenv("RETENTION_MONTHS", "")
	t.Setenv("APP_PORT", "70000")
	_, err = Load()
	assert.ErrorContains(t, err, "APP_PORT")
}
