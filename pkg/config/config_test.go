package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 6, cfg.Links.ShortCodeLength)
	assert.Equal(t, 3, cfg.Links.MinAliasLength)
	assert.Equal(t, 50, cfg.Links.MaxAliasLength)
	assert.Equal(t, 3, cfg.Links.MaxGenerateAttempts)
	assert.Equal(t, 5*time.Second, cfg.Links.ProbeTimeout)
	assert.Equal(t, 30*time.Minute, cfg.TokenExpiry)
	assert.True(t, cfg.Links.AllowAnonymous)
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_URL", "https://sho.rt/")
	t.Setenv("SHORT_CODE_LENGTH", "8")
	t.Setenv("TOKEN_EXPIRE_MINUTES", "60")
	t.Setenv("PROBE_TIMEOUT", "2s")
	t.Setenv("ALLOWED_EMAILS", "a@example.com, b@example.com,")
	t.Setenv("ALLOW_ANONYMOUS_LINKS", "false")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://sho.rt", cfg.BaseURL)
	assert.Equal(t, 8, cfg.Links.ShortCodeLength)
	assert.Equal(t, time.Hour, cfg.TokenExpiry)
	assert.Equal(t, 2*time.Second, cfg.Links.ProbeTimeout)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AllowedEmails)
	assert.False(t, cfg.Links.AllowAnonymous)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_RejectsBadCodeLength(t *testing.T) {
	t.Setenv("SHORT_CODE_LENGTH", "11")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsInvertedAliasBounds(t *testing.T) {
	t.Setenv("MIN_ALIAS_LENGTH", "10")
	t.Setenv("MAX_ALIAS_LENGTH", "5")

	_, err := Load()
	assert.Error(t, err)
}
