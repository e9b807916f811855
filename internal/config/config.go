package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Backend chat API
	BackendURL    string
	ClientTimeout time.Duration

	// Identity provider
	IdPURL    string
	IdPAPIKey string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Local state (history snapshot, stored provider session)
	CacheDir string
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		BackendURL:    getEnv("LUMINA_BACKEND_URL", "http://localhost:5000"),
		ClientTimeout: parseDuration(getEnv("LUMINA_CLIENT_TIMEOUT", "2m")),

		IdPURL:    getEnv("LUMINA_IDP_URL", "http://localhost:9099"),
		IdPAPIKey: getEnv("LUMINA_IDP_API_KEY", ""),

		LogFile:  getEnv("LUMINA_LOG_FILE", "/tmp/lumina.log"),
		LogLevel: parseLogLevel(getEnv("LUMINA_LOG_LEVEL", "INFO")),

		CacheDir: getEnv("LUMINA_CACHE_DIR", defaultCacheDir()),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "lumina")
	}
	return filepath.Join(base, "lumina")
}
