package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadEnvKeys are the variables Load reads that these tests touch.
var loadEnvKeys = []string{
	"ERP_APP_NAME",
	"ERP_APP_ENV",
	"ERP_APP_PORT",
	"ERP_DATABASE_HOST",
	"ERP_DATABASE_PORT",
	"ERP_DATABASE_USER",
	"ERP_DATABASE_PASSWORD",
	"ERP_DATABASE_DBNAME",
	"ERP_DATABASE_SSLMODE",
	"ERP_DATABASE_MAX_OPEN_CONNS",
	"ERP_DATABASE_MAX_IDLE_CONNS",
	"ERP_CACHE_DOCUMENT_TTL",
	"ERP_CACHE_REQUIRE_REDIS",
	"APP_ENV",
}

// resetEnv unsets every config variable for the duration of the test,
// restoring the caller's environment afterwards.
func resetEnv(t *testing.T) {
	t.Helper()
	for _, key := range loadEnvKeys {
		if val, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, val) })
			os.Unsetenv(key)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	resetEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "erp-procurement", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "procurement", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DocumentTTL)
	assert.True(t, cfg.Cache.InMemoryFallback)
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetEnv(t)
	t.Setenv("ERP_APP_NAME", "test-app")
	t.Setenv("ERP_APP_ENV", "testing")
	t.Setenv("ERP_APP_PORT", "9000")
	t.Setenv("ERP_DATABASE_HOST", "testdb.local")
	t.Setenv("ERP_DATABASE_PORT", "5433")
	t.Setenv("ERP_DATABASE_USER", "testuser")
	t.Setenv("ERP_DATABASE_PASSWORD", "testpass")
	t.Setenv("ERP_DATABASE_DBNAME", "testdb")
	t.Setenv("ERP_DATABASE_SSLMODE", "require")
	t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "50")
	t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "10")
	t.Setenv("ERP_CACHE_DOCUMENT_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, "testing", cfg.App.Env)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "testdb.local", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "testuser", cfg.Database.User)
	assert.Equal(t, "testpass", cfg.Database.Password)
	assert.Equal(t, "testdb", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, 90*time.Second, cfg.Cache.DocumentTTL)
}

func TestLoad_PoolValidation(t *testing.T) {
	t.Run("idle connections capped by open connections", func(t *testing.T) {
		resetEnv(t)
		t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero open connections falls back to the default", func(t *testing.T) {
		resetEnv(t)
		t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("negative idle connections rejected", func(t *testing.T) {
		resetEnv(t)
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})
}

func TestLoad_RequireRedisDisablesFallback(t *testing.T) {
	resetEnv(t)
	t.Setenv("ERP_CACHE_REQUIRE_REDIS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Cache.RequireRedis)
	assert.False(t, cfg.Cache.InMemoryFallback)
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("empty password rejected", func(t *testing.T) {
		resetEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("sslmode disable rejected", func(t *testing.T) {
		resetEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ERP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("hardened settings accepted", func(t *testing.T) {
		resetEnv(t)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ERP_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	base := DatabaseConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "testuser",
		DBName:  "testdb",
		SSLMode: "disable",
	}

	t.Run("contains every connection component", func(t *testing.T) {
		cfg := base
		cfg.Password = "testpass"

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("url-escapes the password", func(t *testing.T) {
		cfg := base
		cfg.Password = "pass@word#123"

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("empty password still yields a DSN", func(t *testing.T) {
		assert.NotEmpty(t, base.DSN())
	})
}
