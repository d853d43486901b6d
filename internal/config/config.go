// Package config provides environment-driven configuration for the tracker.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// DefaultMaxImportBytes caps a CSV import body when MAX_IMPORT_BYTES is unset.
const DefaultMaxImportBytes = 10 << 20

// Config holds all application configuration values.
type Config struct {
	DatabaseURL    Secret
	Port           string
	ListenHost     string
	MetricsPort    string
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string
	DBMaxConns     int
	MaxImportBytes int64
	RateLimit      int
	RateBurst      int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "3030"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		MetricsPort: envOrDefault("METRICS_PORT", "9091"),
		LogLevel:    strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(envOrDefault("LOG_FORMAT", "json")),
	}

	var err error

	if cfg.DBMaxConns, err = envInt("DB_MAX_CONNS", 21, 2, 200); err != nil {
		return nil, err
	}

	if cfg.RateLimit, err = envInt("RATE_LIMIT", 100, 0, 100000); err != nil {
		return nil, err
	}

	if cfg.RateBurst, err = envInt("RATE_BURST", 200, 1, 100000); err != nil {
		return nil, err
	}

	maxImport, err := strconv.ParseInt(envOrDefault("MAX_IMPORT_BYTES", strconv.Itoa(DefaultMaxImportBytes)), 10, 64)
	if err != nil || maxImport < 1 {
		return nil, fmt.Errorf("MAX_IMPORT_BYTES must be a positive integer")
	}
	cfg.MaxImportBytes = maxImport

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the metrics listen address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// envInt parses key as an integer in [lo, hi], falling back to def when unset.
func envInt(key string, def, lo, hi int) (int, error) {
	n, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(def)))
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}

	return n, nil
}
