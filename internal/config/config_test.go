package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patchme.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3800", cfg.Listen)
	assert.Equal(t, "/data/patchme.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 250, cfg.ActivityLogKeep)
	assert.Equal(t, 100, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window.Duration)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.SweepInterval.Duration)
	assert.Equal(t, 3, cfg.Ingest.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Ingest.RetryBaseDelay.Duration)
	assert.Equal(t, 10*time.Second, cfg.Ingest.TxTimeout.Duration)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/patchme.yml")
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
db_path: "./test.db"
log_format: "json"
activity_log_keep: 50
rate_limit:
  window: "30s"
  limit: 10
  sweep_interval: "1m"
ingest:
  max_retries: 5
  retry_base_delay: "50ms"
  tx_timeout: "5s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "./test.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 50, cfg.ActivityLogKeep)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window.Duration)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, 5, cfg.Ingest.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Ingest.RetryBaseDelay.Duration)
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_PM_DB", "/tmp/expanded.db")
	path := writeConfig(t, "db_path: \"${TEST_PM_DB}\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/expanded.db", cfg.DBPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PATCHME_LISTEN", ":4000")
	t.Setenv("PATCHME_LOG_LEVEL", "debug")
	t.Setenv("PATCHME_RATE_LIMIT", "7")
	t.Setenv("PATCHME_RATE_WINDOW", "10s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.RateLimit.Limit)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window.Duration)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "rate_limit:\n  window: \"soon\"\n")
	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"zero keep", func(c *Config) { c.ActivityLogKeep = 0 }, "activity_log_keep"},
		{"zero limit", func(c *Config) { c.RateLimit.Limit = 0 }, "rate_limit.limit"},
		{"zero window", func(c *Config) { c.RateLimit.Window = Duration{} }, "rate_limit.window"},
		{"negative retries", func(c *Config) { c.Ingest.MaxRetries = -1 }, "max_retries"},
		{"zero tx timeout", func(c *Config) { c.Ingest.TxTimeout = Duration{} }, "tx_timeout"},
		{"admin email without password", func(c *Config) { c.Admin.Email = "a@b.c" }, "admin.password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func FuzzExpandEnvVars(f *testing.F) {
	f.Add([]byte("db_path: ${HOME}/pm.db"))
	f.Add([]byte("${}${UNSET_____}"))
	f.Add([]byte("plain: value"))
	f.Fuzz(func(t *testing.T, data []byte) {
		// Must never panic, and input without placeholders passes through.
		out := expandEnvVars(data)
		if !envVarPattern.Match(data) && string(out) != string(data) {
			t.Fatalf("input without placeholders was modified: %q -> %q", data, out)
		}
	})
}
