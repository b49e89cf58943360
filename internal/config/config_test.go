package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 1000, cfg.MessageMaxLength)
	assert.Equal(t, 100, cfg.ConversationPageLimit)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("ADMIN_EMAILS", "root@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"root@example.com"}, cfg.AdminEmails)
}

func TestProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	t.Setenv("DB_DSN", "postgres://prod")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://prod", cfg.DatabaseDSN)
}

func TestValidateRejectsNonPositiveLimits(t *testing.T) {
	cfg := Config{Env: "development", MessageMaxLength: 0, ConversationPageLimit: 100, WSSendBuffer: 1}
	assert.Error(t, cfg.Validate())
}
