package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "WEB_DIR", "LOG_LEVEL", "DATABASE_URL", "SESSION_IDLE_TTL", "JANITOR_INTERVAL", "OIDC_ISSUER"} {
		t.Setenv(k, "")
	}

	c := Load()
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "web", c.WebDir)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.DatabaseURL)
	assert.Equal(t, 2*time.Hour, c.SessionIdleTTL)
	assert.Equal(t, 10*time.Minute, c.JanitorInterval)
	assert.False(t, c.OIDC.Enabled())
	require.NoError(t, c.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("SESSION_IDLE_TTL", "30m")
	t.Setenv("JANITOR_INTERVAL", "not-a-duration")
	t.Setenv("OIDC_ISSUER", "https://id.example.com")
	t.Setenv("OIDC_CLIENT_ID", "florist")
	t.Setenv("OIDC_CLIENT_SECRET", "s3cret")
	t.Setenv("OIDC_REDIRECT_URL", "https://shop.example.com/api/auth/sso/callback")

	c := Load()
	assert.Equal(t, ":9000", c.Addr)
	assert.Equal(t, 30*time.Minute, c.SessionIdleTTL)
	assert.Equal(t, 10*time.Minute, c.JanitorInterval)
	assert.True(t, c.OIDC.Enabled())
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{Addr: ":8080", SessionIdleTTL: time.Hour, JanitorInterval: time.Minute}
	require.NoError(t, base.Validate())

	partial := base
	partial.OIDC.Issuer = "https://id.example.com"
	assert.ErrorContains(t, partial.Validate(), "OIDC_ISSUER")

	zero := base
	zero.SessionIdleTTL = 0
	zero.Addr = " "
	err := zero.Validate()
	assert.ErrorContains(t, err, "SESSION_IDLE_TTL")
	assert.ErrorContains(t, err, "ADDR")
}
