package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.MFAChallengeTTL)
	assert.Equal(t, time.Minute, cfg.MFASweepInterval)
	assert.NotEmpty(t, cfg.JWTSigningKey)
	assert.False(t, cfg.TracingEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TRUSTD_ADDR", ":9090")
	t.Setenv("TRUSTD_TOKEN_TTL", "1h")
	t.Setenv("TRUSTD_MFA_TTL", "2m")
	t.Setenv("TRUSTD_GEO_LAT", "51.5074")
	t.Setenv("TRUSTD_GEO_LON", "-0.1278")
	t.Setenv("TRUSTD_HISTORY_PATH", "/tmp/history.db")
	t.Setenv("TRUSTD_TRACING", "true")
	t.Setenv("TRUSTD_JWT_SIGNING_KEY", "prod-key")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 2*time.Minute, cfg.MFAChallengeTTL)
	assert.Equal(t, 51.5074, cfg.GeoLat)
	assert.Equal(t, -0.1278, cfg.GeoLon)
	assert.Equal(t, "/tmp/history.db", cfg.HistoryPath)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "prod-key", cfg.JWTSigningKey)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("TRUSTD_TOKEN_TTL", "not-a-duration")
	t.Setenv("TRUSTD_GEO_LAT", "not-a-float")

	cfg := FromEnv()

	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 40.7128, cfg.GeoLat)
}
