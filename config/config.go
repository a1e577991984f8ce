// Package config loads the lexbaux configuration: YAML file merged over
// defaults, then environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/lexbaux/generalinfo"
)

// Config holds the full lexbaux configuration.
type Config struct {
	Listen      string            `yaml:"listen"`
	LogLevel    string            `yaml:"log_level"`
	LogFormat   string            `yaml:"log_format"` // json | text
	MaxUploadMB int               `yaml:"max_upload_mb"`
	GeneralInfo GeneralInfoConfig `yaml:"general_info"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	MCP         MCPConfig         `yaml:"mcp"`
}

// GeneralInfoConfig selects the party-extraction strategy.
type GeneralInfoConfig struct {
	Strategy string `yaml:"strategy"` // label | structured
}

// RateLimitConfig bounds /api/ requests per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"` // 0 disables limiting
	Window   time.Duration `yaml:"window"`
	// TrustProxy keys clients on X-Forwarded-For. Only enable behind a
	// reverse proxy that sets the header itself.
	TrustProxy bool `yaml:"trust_proxy"`
}

// MetricsConfig configures the SQLite metrics store.
type MetricsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	DBPath        string        `yaml:"db_path"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	RetentionDays int           `yaml:"retention_days"`
}

// MCPConfig confines the file-reading MCP tools.
type MCPConfig struct {
	// Root is the directory lexbaux_analyze_pdf may read from. Empty means
	// paths are used as given (stdio use by a local agent).
	Root string `yaml:"root"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:      ":8080",
		LogLevel:    "info",
		LogFormat:   "json",
		MaxUploadMB: 20,
		GeneralInfo: GeneralInfoConfig{Strategy: generalinfo.StrategyLabel},
		RateLimit:   RateLimitConfig{Requests: 30, Window: time.Minute},
		Metrics: MetricsConfig{
			Enabled:       true,
			DBPath:        "data/metrics.db",
			FlushInterval: 5 * time.Second,
			RetentionDays: 90,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if
// path is non-empty, then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides fields from LEXBAUX_* variables. PORT and LOG_LEVEL
// are honoured for platform compatibility.
func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
	c.Listen = env("LEXBAUX_LISTEN", c.Listen)
	c.LogLevel = env("LEXBAUX_LOG_LEVEL", env("LOG_LEVEL", c.LogLevel))
	c.LogFormat = env("LEXBAUX_LOG_FORMAT", c.LogFormat)
	c.GeneralInfo.Strategy = env("LEXBAUX_GENERAL_INFO_STRATEGY", c.GeneralInfo.Strategy)
	c.Metrics.DBPath = env("LEXBAUX_METRICS_DB", c.Metrics.DBPath)
	c.MCP.Root = env("LEXBAUX_MCP_ROOT", c.MCP.Root)

	if v := os.Getenv("LEXBAUX_MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEXBAUX_MAX_UPLOAD_MB: %w", err)
		}
		c.MaxUploadMB = n
	}
	if v := os.Getenv("LEXBAUX_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEXBAUX_RATE_LIMIT: %w", err)
		}
		c.RateLimit.Requests = n
	}
	if v := os.Getenv("LEXBAUX_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LEXBAUX_TRUST_PROXY: %w", err)
		}
		c.RateLimit.TrustProxy = b
	}
	if v := os.Getenv("LEXBAUX_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LEXBAUX_METRICS: %w", err)
		}
		c.Metrics.Enabled = b
	}
	return nil
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0")
	}
	if _, err := generalinfo.ForStrategy(c.GeneralInfo.Strategy); err != nil {
		return fmt.Errorf("general_info.strategy: %w", err)
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests must be >= 0")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be > 0")
	}
	if c.Metrics.Enabled && c.Metrics.DBPath == "" {
		return fmt.Errorf("metrics.db_path is required when metrics are enabled")
	}
	return nil
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) * 1024 * 1024 }

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
