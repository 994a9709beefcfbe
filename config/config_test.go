package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("error without JWT_SECRET", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, "JWT_SECRET is required", err.Error())
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		for _, key := range []string{"PORT", "ENVIRONMENT", "JWT_TTL", "STATS_CACHE_TTL", "CORS_ALLOWED_ORIGINS", "KAFKA_BROKERS", "TIMEZONE"} {
			unsetenv(t, key)
		}

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "test-secret", cfg.JWTSecret)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, EnvDevelopment, cfg.Environment)
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
		assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
		assert.Empty(t, cfg.KafkaBrokers)
		assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
	})

	t.Run("PORT from env", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("PORT", "9999")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9999", cfg.Port)
	})

	t.Run("list parsing", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.com, http://b.com ,,c.com")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"http://a.com", "http://b.com", "c.com"}, cfg.CORSOrigins)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	})

	t.Run("unknown environment", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("ENVIRONMENT", "staging")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("timezone", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("TIMEZONE", "Asia/Makassar")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "Asia/Makassar", cfg.Location().String())

		t.Setenv("TIMEZONE", "Mars/Olympus")
		_, err = Load()
		assert.Error(t, err)

		t.Setenv("TIMEZONE", "Local")
		_, err = Load()
		assert.Error(t, err)
	})

	t.Run("bootstrap admin", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("ADMIN_EMAIL", "admin@tahuri.id")
		t.Setenv("ADMIN_PASSWORD", "rahasia123")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.BootstrapAdmin())
	})
}

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
