// Package config contains everything related to configuration
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned by Load when FMP_API_KEY is not set.
var ErrMissingAPIKey = errors.New(`FMP_API_KEY not found in .env file
Please create a .env file in the project root with your FMP API key:
FMP_API_KEY=your_api_key_here`)

// Config holds the process configuration read from the environment.
type Config struct {
	APIKey       string
	BaseURL      string
	SettingsPath string
	LogPath      string
	HTTPTimeout  time.Duration
}

// Default values
const (
	DefaultBaseURL      = "https://financialmodelingprep.com/api"
	DefaultSettingsPath = "config.json"
	defaultHTTPTimeout  = 30 * time.Second
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		APIKey:       getEnvString("FMP_API_KEY", ""),
		BaseURL:      getEnvString("FMP_BASE_URL", DefaultBaseURL),
		SettingsPath: getEnvString("FINCACHE_CONFIG", DefaultSettingsPath),
		LogPath:      getEnvString("FINCACHE_LOG", ""),
		HTTPTimeout:  getEnvDuration("FMP_HTTP_TIMEOUT", defaultHTTPTimeout),
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if err := ensureDir(filepath.Dir(cfg.SettingsPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "fincache", ".env"))
	}

	// Parent directory (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(cwd), ".env"))
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
