package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Config reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "TODO_STORE_BACKEND", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"BLUEPRINT_DB_HOST", "BLUEPRINT_DB_PORT", "BLUEPRINT_DB_DATABASE",
		"BLUEPRINT_DB_USERNAME", "BLUEPRINT_DB_PASSWORD", "BLUEPRINT_DB_SCHEMA",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TODO_STORE_BACKEND", "postgres")
	t.Setenv("SHUTDOWN_TIMEOUT", "10s")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("BLUEPRINT_DB_HOST", "db.internal")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	body := "port: 7000\nstore_backend: postgres\ndatabase:\n  host: filehost\n  database: todos\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("BLUEPRINT_DB_HOST", "envhost")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "todos", cfg.Database.Database)
	assert.Equal(t, "envhost", cfg.Database.Host)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("TODO_STORE_BACKEND", "redis")

	_, err := Load("")
	assert.ErrorContains(t, err, "invalid store backend")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{Port: 8080, StoreBackend: BackendMemory, ShutdownTimeout: time.Second}
	require.NoError(t, base.Validate())

	bad := base
	bad.Port = 70000
	assert.Error(t, bad.Validate())

	bad = base
	bad.ShutdownTimeout = 0
	assert.Error(t, bad.Validate())
}
