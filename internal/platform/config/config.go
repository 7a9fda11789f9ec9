package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr             string
	JWTSigningKey    string
	TokenTTL         time.Duration
	MFAChallengeTTL  time.Duration
	MFASweepInterval time.Duration

	// HistoryPath points at the sqlite file backing the history store.
	// Empty means the in-memory store, which is what tests and local
	// development use.
	HistoryPath string

	// GeoLat/GeoLon configure the stub IP resolver. Real geolocation is
	// swapped in at deployment behind the same interface.
	GeoLat float64
	GeoLon float64

	TracingEnabled bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             ":8080",
		TokenTTL:         24 * time.Hour,
		MFAChallengeTTL:  5 * time.Minute,
		MFASweepInterval: time.Minute,
		GeoLat:           40.7128,
		GeoLon:           -74.0060,
	}

	if addr := os.Getenv("TRUSTD_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if ttl := os.Getenv("TRUSTD_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.TokenTTL = d
		}
	}
	if ttl := os.Getenv("TRUSTD_MFA_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.MFAChallengeTTL = d
		}
	}
	if iv := os.Getenv("TRUSTD_MFA_SWEEP_INTERVAL"); iv != "" {
		if d, err := time.ParseDuration(iv); err == nil {
			cfg.MFASweepInterval = d
		}
	}
	if lat := os.Getenv("TRUSTD_GEO_LAT"); lat != "" {
		if f, err := strconv.ParseFloat(lat, 64); err == nil {
			cfg.GeoLat = f
		}
	}
	if lon := os.Getenv("TRUSTD_GEO_LON"); lon != "" {
		if f, err := strconv.ParseFloat(lon, 64); err == nil {
			cfg.GeoLon = f
		}
	}

	cfg.HistoryPath = os.Getenv("TRUSTD_HISTORY_PATH")
	cfg.TracingEnabled = os.Getenv("TRUSTD_TRACING") == "true"

	cfg.JWTSigningKey = os.Getenv("TRUSTD_JWT_SIGNING_KEY")
	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	return cfg
}
