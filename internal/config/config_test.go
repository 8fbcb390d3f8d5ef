package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 7420, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL.Std())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  host: 0.0.0.0
  port: 9000
storage:
  type: redis
  redis:
    url: redis://localhost:6379/0
cache:
  type: sqlite
  path: /tmp/state.db
session:
  ttl: 1h
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.Redis.URL)
	assert.Equal(t, "sqlite", cfg.Cache.Type)
	assert.Equal(t, "/tmp/state.db", cfg.Cache.Path)
	assert.Equal(t, time.Hour, cfg.Session.TTL.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "memory", cfg.Storage.Type)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0o644))

	t.Setenv("AUTHGATE_PORT", "9999")
	t.Setenv("AUTHGATE_LOG_LEVEL", "warn")
	t.Setenv("AUTHGATE_SESSION_TTL", "30m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL.Std())
}

func TestInvalidEnvPort(t *testing.T) {
	t.Setenv("AUTHGATE_PORT", "not-a-port")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	t.Run("redis without url", func(t *testing.T) {
		t.Setenv("AUTHGATE_STORAGE_TYPE", "redis")
		_, err := Load("")
		assert.ErrorContains(t, err, "storage.redis.url")
	})

	t.Run("unknown storage type", func(t *testing.T) {
		t.Setenv("AUTHGATE_STORAGE_TYPE", "postgres")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid storage.type")
	})

	t.Run("unknown cache type", func(t *testing.T) {
		t.Setenv("AUTHGATE_CACHE_TYPE", "files")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid cache.type")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
