package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "", cfg.Redis.URL)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Analytics.Workers)
	assert.Equal(t, 256, cfg.Analytics.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Analytics.TaskTimeout)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("ANALYTICS_WORKERS", "4")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.Analytics.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "help.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: memory
analytics:
  queue_size: 16
security:
  allowed_origins:
    - https://app.example
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 16, cfg.Analytics.QueueSize)
	assert.Equal(t, []string{"https://app.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestValidate(t *testing.T) {
	var cfg Config
	cfg.Store.Driver = StoreDriverPostgres
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "release"
	cfg.Analytics.Workers = 1
	cfg.Analytics.QueueSize = 1

	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.Database.URL = "postgres://localhost/help"
	assert.NoError(t, cfg.Validate())

	cfg.Analytics.QueueSize = 0
	assert.Error(t, cfg.Validate())
}
