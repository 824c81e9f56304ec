package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 500*time.Millisecond, cfg.Playground.Debounce)
	assert.Equal(t, 30*time.Second, cfg.Playground.AutosaveInterval)
	assert.Equal(t, time.Second, cfg.Playground.ReleaseDelay)
	assert.Equal(t, 100, cfg.Playground.LogLimit)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, 2*time.Second, cfg.Headless.Timeout)
	assert.Contains(t, cfg.Preview.ReactURL, "react@17")
	assert.Equal(t, "http://localhost:8080", cfg.Server.URL())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".codeplay.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 3000
  host: 0.0.0.0
  allowed_origins:
    - http://localhost:5173
playground:
  debounce: 250ms
  log_limit: 50
storage:
  driver: sqlite
  path: data/playground.db
rate_limit:
  render_per_second: 2.5
  burst: 4
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3000", cfg.Server.URL())
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Address())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.Playground.Debounce)
	assert.Equal(t, 50, cfg.Playground.LogLimit)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.InDelta(t, 2.5, cfg.RateLimit.RenderPerSecond, 0.001)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.Playground.ReleaseDelay)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CODEPLAY_SERVER_PORT", "9090")
	t.Setenv("CODEPLAY_STORAGE_DRIVER", "memory")

	v := viper.New()
	BindEnv(v)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"port out of range", "server.port", 70000},
		{"port not a number", "server.port", "invalid_port"},
		{"dangerous host", "server.host", "localhost;rm"},
		{"wildcard origin", "server.allowed_origins", []string{"*"}},
		{"bad trusted proxy", "server.trusted_proxies", []string{"proxy.local"}},
		{"unknown driver", "storage.driver", "postgres"},
		{"path traversal", "storage.path", "../../etc/passwd"},
		{"bad runtime url", "preview.react_url", "javascript:alert(1)"},
		{"negative debounce", "playground.debounce", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			cfg, err := LoadFrom(v)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestValidationWarnings(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: 80, Environment: "staging"},
		Storage:   StorageConfig{Driver: "memory"},
		Preview:   PreviewConfig{BabelURL: "http://cdn.example.com/babel.js"},
		RateLimit: RateLimitConfig{RenderPerSecond: 1},
	}

	result := ValidateConfigWithDetails(cfg)
	assert.True(t, result.Valid)
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
	assert.Len(t, result.Warnings, 4)
	assert.Contains(t, result.String(), "Validation warnings")
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, validatePath("data/playground.yml"))
	assert.Error(t, validatePath(""))
	assert.Error(t, validatePath("../secret"))
	assert.Error(t, validatePath("file;rm -rf"))
}
