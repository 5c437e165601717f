package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresSigningKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingSigningKey)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "super secret key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 5000, cfg.ServerPort)
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "k")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("S3_BUCKET", "photos")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.S3.Enabled())
	assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "abc",
		"JWT_TTL":         "-5m",
		"DATABASE_DRIVER": "mysql",
		"EVENT_RETENTION": "forever",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "k")
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
