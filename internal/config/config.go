// Package config loads gateway configuration from the environment.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAddr    = "127.0.0.1:5000"
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-20241022"
	DefaultTimeout = 10 * time.Minute
	DefaultEnvFile = ".env"
)

// Config holds everything read at process start. Nothing here changes while
// the process runs.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string

	// APIKey is the provider key. Empty means the provider is unavailable
	// unless APIKeyParam resolves one.
	APIKey string
	// APIKeyParam is an SSM parameter name consulted when APIKey is empty.
	APIKeyParam string

	BaseURL string
	Model   string
	Timeout time.Duration

	Debug          bool
	AllowedOrigins []string

	// UsageTable enables the DynamoDB usage ledger when set.
	UsageTable string

	// Warnings lists values that were rejected in favour of a default.
	// Load runs before logging is configured, so callers report them.
	Warnings []Warning
}

// Warning is one environment value Load could not use.
type Warning struct {
	Key     string
	Value   string
	Default string
	Reason  string
}

// LogWarnings reports every rejected value through the default logger.
func (c *Config) LogWarnings() {
	for _, w := range c.Warnings {
		slog.Warn(w.Reason+", using default", "key", w.Key, "value", w.Value, "default", w.Default)
	}
}

// Load reads envFile (missing files are ignored) and then the environment.
// Variables already present in the environment take precedence.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var warns []Warning
	cfg := &Config{
		Addr:           envOr("GATEWAY_ADDR", DefaultAddr),
		APIKey:         strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		APIKeyParam:    strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY_PARAM")),
		BaseURL:        envOr("ANTHROPIC_BASE_URL", DefaultBaseURL),
		Model:          envOr("ANTHROPIC_MODEL", DefaultModel),
		Timeout:        envDuration(&warns, "ANTHROPIC_TIMEOUT", DefaultTimeout),
		Debug:          envBool(&warns, "GATEWAY_DEBUG", true),
		AllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		UsageTable:     strings.TrimSpace(os.Getenv("USAGE_TABLE")),
	}
	cfg.Warnings = warns
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(warns *[]Warning, key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*warns = append(*warns, Warning{Key: key, Value: v, Default: def.String(), Reason: "invalid duration"})
		return def
	}
	return d
}

func envBool(warns *[]Warning, key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*warns = append(*warns, Warning{Key: key, Value: v, Default: strconv.FormatBool(def), Reason: "invalid boolean"})
		return def
	}
	return b
}

func envList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
