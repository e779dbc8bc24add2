package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"GATEWAY_ADDR", "ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY_PARAM", "ANTHROPIC_BASE_URL",
	"ANTHROPIC_MODEL", "ANTHROPIC_TIMEOUT", "GATEWAY_DEBUG", "CORS_ALLOWED_ORIGINS", "USAGE_TABLE",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultAddr, cfg.Addr)
	require.Empty(t, cfg.APIKey)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, DefaultModel, cfg.Model)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.True(t, cfg.Debug)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.Empty(t, cfg.UsageTable)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATEWAY_ADDR", ":8080")
	t.Setenv("ANTHROPIC_API_KEY", "  sk-ant-from-env  ")
	t.Setenv("ANTHROPIC_MODEL", "claude-test")
	t.Setenv("ANTHROPIC_TIMEOUT", "30s")
	t.Setenv("GATEWAY_DEBUG", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://doit.example ,")
	t.Setenv("USAGE_TABLE", "usage")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "sk-ant-from-env", cfg.APIKey)
	require.Equal(t, "claude-test", cfg.Model)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.False(t, cfg.Debug)
	require.Equal(t, []string{"http://localhost:3000", "https://doit.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_TIMEOUT", "soon")
	t.Setenv("GATEWAY_DEBUG", "maybe")
	t.Setenv("CORS_ALLOWED_ORIGINS", " , ")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.True(t, cfg.Debug)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.Equal(t, []Warning{
		{Key: "ANTHROPIC_TIMEOUT", Value: "soon", Default: "10m0s", Reason: "invalid duration"},
		{Key: "GATEWAY_DEBUG", Value: "maybe", Default: "true", Reason: "invalid boolean"},
	}, cfg.Warnings)
}

func TestLogWarnings_UsesDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := &Config{Warnings: []Warning{{Key: "ANTHROPIC_TIMEOUT", Value: "soon", Default: "10m0s", Reason: "invalid duration"}}}
	cfg.LogWarnings()

	out := buf.String()
	require.Contains(t, out, "invalid duration, using default")
	require.Contains(t, out, "key=ANTHROPIC_TIMEOUT")
	require.Contains(t, out, "value=soon")
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv only fills variables that are unset, so drop the blanks.
	require.NoError(t, os.Unsetenv("ANTHROPIC_API_KEY"))
	require.NoError(t, os.Unsetenv("ANTHROPIC_MODEL"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANTHROPIC_API_KEY=sk-ant-from-file\nANTHROPIC_MODEL=claude-file\n"), 0o600))
	t.Setenv("ANTHROPIC_MODEL", "claude-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sk-ant-from-file", cfg.APIKey)
	require.Equal(t, "claude-env", cfg.Model)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}
