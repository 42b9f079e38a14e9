package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"STOREFRONT_APP_NAME":               os.Getenv("STOREFRONT_APP_NAME"),
		"STOREFRONT_APP_ENV":                os.Getenv("STOREFRONT_APP_ENV"),
		"STOREFRONT_APP_PORT":               os.Getenv("STOREFRONT_APP_PORT"),
		"STOREFRONT_DATABASE_HOST":          os.Getenv("STOREFRONT_DATABASE_HOST"),
		"STOREFRONT_DATABASE_PASSWORD":      os.Getenv("STOREFRONT_DATABASE_PASSWORD"),
		"STOREFRONT_DATABASE_SSLMODE":       os.Getenv("STOREFRONT_DATABASE_SSLMODE"),
		"STOREFRONT_BRAINS_BASE_URL":        os.Getenv("STOREFRONT_BRAINS_BASE_URL"),
		"STOREFRONT_WHATSAPP_BASE_URL":      os.Getenv("STOREFRONT_WHATSAPP_BASE_URL"),
		"STOREFRONT_WHATSAPP_TOKEN":         os.Getenv("STOREFRONT_WHATSAPP_TOKEN"),
		"STOREFRONT_CONVERSATION_STATE_TTL": os.Getenv("STOREFRONT_CONVERSATION_STATE_TTL"),
		"STOREFRONT_SCHEDULER_ENABLED":      os.Getenv("STOREFRONT_SCHEDULER_ENABLED"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "storefront-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "storefront", cfg.Database.DBName)
		assert.Equal(t, "/webhook/whatsapp", cfg.WhatsApp.WebhookPath)
		assert.Equal(t, "30m0s", cfg.Conversation.StateTTL.String())
		assert.Equal(t, "15m0s", cfg.Scheduler.SyncInterval.String())
	})

	t.Run("loads values from environment variables with STOREFRONT prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOREFRONT_APP_NAME", "test-app")
		os.Setenv("STOREFRONT_DATABASE_HOST", "testdb.local")
		os.Setenv("STOREFRONT_BRAINS_BASE_URL", "http://brains.local:9000")
		os.Setenv("STOREFRONT_CONVERSATION_STATE_TTL", "45m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, "http://brains.local:9000", cfg.Brains.BaseURL)
		assert.Equal(t, "45m0s", cfg.Conversation.StateTTL.String())
	})

	t.Run("production requires credentials", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOREFRONT_APP_ENV", "production")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production with full settings passes", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOREFRONT_APP_ENV", "production")
		os.Setenv("STOREFRONT_DATABASE_PASSWORD", "secret")
		os.Setenv("STOREFRONT_DATABASE_SSLMODE", "require")
		os.Setenv("STOREFRONT_BRAINS_BASE_URL", "https://brains.example.com")
		os.Setenv("STOREFRONT_WHATSAPP_BASE_URL", "https://graph.example.com")
		os.Setenv("STOREFRONT_WHATSAPP_TOKEN", "token")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "store",
		Password: "p@ss/word",
		DBName:   "storefront",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "p%40ss%2Fword", "password is URL escaped")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
