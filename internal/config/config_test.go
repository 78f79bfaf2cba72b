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
	t.Setenv("JWT_SECRET", "s")
	for _, k := range []string{"STORE_BACKEND", "APP_PORT", "ACCESS_TOKEN_TTL_MIN", "ACTIVITY_LOG_PATH", "SEED_DUMMY"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 30, cfg.AccessTTLMin)
	assert.Equal(t, filepath.Join("logs", "activity.log"), cfg.ActivityLogPath)
	assert.False(t, cfg.SeedDummy)
}

func TestLoad_ReportsAllMissingVars(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_BACKEND", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, k := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_NAME"} {
		assert.Contains(t, err.Error(), k)
	}
}

func TestLoad_RejectsUnknownBackendAndBadInt(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("BCRYPT_COST", "high")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_PROBE=from-file\nDOTENV_KEEP=file\n"), 0o644))
	t.Setenv("DOTENV_KEEP", "env")
	t.Cleanup(func() { os.Unsetenv("DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("DOTENV_PROBE"))
	assert.Equal(t, "env", os.Getenv("DOTENV_KEEP"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "uri_query", cfg.KeyStrategy)
}
