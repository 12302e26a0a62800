// Package config handles loading and validating PatchMe configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} placeholders in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ErrConfigFileNotFound is returned by Load when the specified config file does not exist.
var ErrConfigFileNotFound = errors.New("config file not found")

// Config is the top-level PatchMe configuration.
type Config struct {
	Listen          string          `yaml:"listen"`
	DBPath          string          `yaml:"db_path"`
	LogLevel        string          `yaml:"log_level"`
	LogFormat       string          `yaml:"log_format"`
	ActivityLogKeep int             `yaml:"activity_log_keep"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Ingest          IngestConfig    `yaml:"ingest"`
	Admin           AdminConfig     `yaml:"admin"`
}

// RateLimitConfig tunes the per-API-key fixed-window limiter.
type RateLimitConfig struct {
	Window        Duration `yaml:"window"`
	Limit         int      `yaml:"limit"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// IngestConfig tunes the ingest pipeline's transaction and retry behavior.
type IngestConfig struct {
	MaxRetries     int      `yaml:"max_retries"`
	RetryBaseDelay Duration `yaml:"retry_base_delay"`
	TxTimeout      Duration `yaml:"tx_timeout"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
}

// AdminConfig seeds the initial admin account when the users table is empty.
type AdminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Duration wraps time.Duration with YAML string parsing support.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Load reads configuration from a YAML file. If no path is given, defaults
// plus environment overrides apply. If a path is given and the file does not
// exist, ErrConfigFileNotFound is returned.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(expandEnvVars(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("log_format must be one of: text, json")
	}
	if c.ActivityLogKeep < 1 {
		return fmt.Errorf("activity_log_keep must be >= 1")
	}
	if c.RateLimit.Limit < 1 {
		return fmt.Errorf("rate_limit.limit must be >= 1")
	}
	if c.RateLimit.Window.Duration <= 0 {
		return fmt.Errorf("rate_limit.window must be > 0")
	}
	if c.RateLimit.SweepInterval.Duration <= 0 {
		return fmt.Errorf("rate_limit.sweep_interval must be > 0")
	}
	if c.Ingest.MaxRetries < 0 {
		return fmt.Errorf("ingest.max_retries must be >= 0")
	}
	if c.Ingest.RetryBaseDelay.Duration <= 0 {
		return fmt.Errorf("ingest.retry_base_delay must be > 0")
	}
	if c.Ingest.TxTimeout.Duration <= 0 {
		return fmt.Errorf("ingest.tx_timeout must be > 0")
	}
	if c.Ingest.MaxBodyBytes < 1 {
		return fmt.Errorf("ingest.max_body_bytes must be >= 1")
	}
	if c.Admin.Email != "" && c.Admin.Password == "" {
		return fmt.Errorf("admin.password is required when admin.email is set")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Listen:          ":3800",
		DBPath:          "/data/patchme.db",
		LogLevel:        "info",
		LogFormat:       "text",
		ActivityLogKeep: 250,
		RateLimit: RateLimitConfig{
			Window:        Duration{time.Minute},
			Limit:         100,
			SweepInterval: Duration{5 * time.Minute},
		},
		Ingest: IngestConfig{
			MaxRetries:     3,
			RetryBaseDelay: Duration{100 * time.Millisecond},
			TxTimeout:      Duration{10 * time.Second},
			MaxBodyBytes:   1 << 20,
		},
	}
}

// expandEnvVars replaces ${VAR_NAME} placeholders in raw YAML with the
// corresponding environment variable values. Unset variables are replaced
// with an empty string, which will then fail validation with a clear error.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		key := string(match[2 : len(match)-1]) // strip ${ and }
		return []byte(os.Getenv(key))
	})
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PATCHME_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("PATCHME_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PATCHME_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PATCHME_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("PATCHME_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Limit = n
		}
	}
	if v := os.Getenv("PATCHME_RATE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimit.Window = Duration{d}
		}
	}
	if v := os.Getenv("PATCHME_ADMIN_NAME"); v != "" {
		cfg.Admin.Name = v
	}
	if v := os.Getenv("PATCHME_ADMIN_EMAIL"); v != "" {
		cfg.Admin.Email = v
	}
	if v := os.Getenv("PATCHME_ADMIN_PASSWORD"); v != "" {
		cfg.Admin.Password = v
	}
}
