package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Server.GetServerAddr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "banshee.db", cfg.Database.GetDSN())
	assert.Equal(t, 24, cfg.Security.JWTExpirationHours)
	assert.Equal(t, 3, cfg.Queue.RetryAttempts)
	assert.Empty(t, cfg.Notify.WebhookURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_USERNAME", "banshee")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "trips")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Security.RateLimitEnabled)
	assert.Equal(t, "host=localhost port=5432 user=banshee password=pw dbname=trips sslmode=disable", cfg.Database.GetDSN())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "unknown driver", env: map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "oracle"}},
		{name: "half seeded admin", env: map[string]string{"JWT_SECRET": "s", "SEED_ADMIN_EMAIL": "a@b.test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
