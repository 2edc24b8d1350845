// Package config loads application configuration from an optional TOML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration values for the duotrip server.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int `toml:"port"`

	// DBPath is the SQLite database file path.
	DBPath string `toml:"db_path"`

	// LogLevel controls the minimum log level: debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// JWTSecret signs session tokens. Required outside of tests.
	JWTSecret string `toml:"jwt_secret"`

	// TokenTTL is how long session tokens stay valid.
	TokenTTL duration `toml:"token_ttl"`

	// OverpassURL is the geo search provider's interpreter endpoint.
	OverpassURL string `toml:"overpass_url"`

	// GeoCacheTTL is how long proximity search results stay cached.
	GeoCacheTTL duration `toml:"geo_cache_ttl"`
}

// duration lets TOML carry values like "24h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Port:        8080,
		DBPath:      "./data/duotrip.db",
		LogLevel:    "info",
		TokenTTL:    duration{24 * time.Hour},
		OverpassURL: "https://overpass-api.de/api/interpreter",
		GeoCacheTTL: duration{5 * time.Minute},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (if
// non-empty), then environment variable overrides. Returns an error if no
// JWT secret is configured by any layer.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret not configured: set jwt_secret or JWT_SECRET")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("OVERPASS_URL"); v != "" {
		cfg.OverpassURL = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TokenTTL = duration{d}
		}
	}
	if v := os.Getenv("GEO_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GeoCacheTTL = duration{d}
		}
	}
}
