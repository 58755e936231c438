package config

import (
	"fmt"
	"os"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL       string
	Port              string
	JWTSecret         string
	OTPSalt           string
	Env               string
	DevMode           bool
	GeocoderBaseURL   string
	GeocoderUserAgent string
	LocationCacheDir  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              "8080",
		Env:               "development",
		GeocoderBaseURL:   "https://nominatim.openstreetmap.org",
		GeocoderUserAgent: "fitsquad-server/1.0",
		LocationCacheDir:  ".cache",
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg.OTPSalt = os.Getenv("OTP_SALT")
	if cfg.OTPSalt == "" {
		return nil, fmt.Errorf("OTP_SALT environment variable is required")
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Env = env
	}
	if v := os.Getenv("GEOCODER_BASE_URL"); v != "" {
		cfg.GeocoderBaseURL = v
	}
	if v := os.Getenv("GEOCODER_USER_AGENT"); v != "" {
		cfg.GeocoderUserAgent = v
	}
	if v := os.Getenv("LOCATION_CACHE_DIR"); v != "" {
		cfg.LocationCacheDir = v
	}
	cfg.DevMode = os.Getenv("DEV_MODE") == "true"

	return cfg, nil
}
