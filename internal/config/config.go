// Package config handles environment configuration for the casarrow
// tools.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the configuration shared by the library helpers and
// the casagen CLI.
type Config struct {
	CacheDir string // artifact cache directory (default: <user cache>/casarrow/test-data)
	DataURL  string // reference dataset URL override
	LogLevel string // log level: debug, info, warn, error (default "info")

	// S3 settings for s3:// data URLs. Credentials are optional;
	// public buckets are fetched anonymously.
	S3Region   string
	S3Endpoint string
	S3KeyID    string
	S3Secret   string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadFromEnv loads configuration from environment variables. All
// variables are optional.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		CacheDir:   os.Getenv("CASARROW_CACHE_DIR"),
		DataURL:    os.Getenv("CASARROW_DATA_URL"),
		LogLevel:   os.Getenv("CASARROW_LOG_LEVEL"),
		S3Region:   os.Getenv("CASARROW_S3_REGION"),
		S3Endpoint: os.Getenv("CASARROW_S3_ENDPOINT"),
		S3KeyID:    os.Getenv("CASARROW_S3_KEY_ID"),
		S3Secret:   os.Getenv("CASARROW_S3_SECRET"),
	}

	if cfg.CacheDir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			return nil, err
		}
		cfg.CacheDir = dir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if (cfg.S3KeyID == "") != (cfg.S3Secret == "") {
		return nil, fmt.Errorf("CASARROW_S3_KEY_ID and CASARROW_S3_SECRET must be set together")
	}
	return cfg, nil
}

// DefaultCacheDir returns the per-user artifact cache directory.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "casarrow", "test-data"), nil
}
