package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, time.Hour, cfg.Session.TTL())
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("SESSION_TTL_MINUTES", "15")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://desk.example.com")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"https://desk.example.com"}, cfg.App.CORSAllowedOrigins)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsUnsafeSettings(t *testing.T) {
	cfg := &Config{
		App:  AppConfig{Env: "production", Port: "http"},
		Auth: AuthConfig{JWTSecret: devJWTSecret, BootstrapAdminEmail: "root@example.com"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"APP_PORT", "must be set in production", "ACCESS_TOKEN_TTL", "set together"} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = &Config{
		App:  AppConfig{Env: "development", Port: "8080"},
		Auth: AuthConfig{JWTSecret: devJWTSecret, AccessTokenTTLMinutes: 5},
	}
	assert.NoError(t, cfg.Validate())
}

func TestLoadFailsInProductionWithDefaultSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}
