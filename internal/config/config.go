package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"logstudio/internal/storage"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort            string
	DBPath             string
	DBDriver           string
	AdminSecret        string
	LogLevel           slog.Level
	LogFormat          string
	CORSAllowedOrigins []string
	WriteRateLimit     int
	ShutdownTimeout    time.Duration
}

// DevMode reports whether mutating routes are left open because no admin secret is configured.
func (c *Config) DevMode() bool {
	return c.AdminSecret == ""
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent directory, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:     getEnv("API_PORT", "9000"),
		DBPath:      getEnv("DB_PATH", "./data/logstudio.db"),
		DBDriver:    getEnv("DB_DRIVER", storage.DriverMattn),
		AdminSecret: os.Getenv("ADMIN_SECRET"),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	switch cfg.DBDriver {
	case storage.DriverMattn, storage.DriverModernc:
	default:
		return nil, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", storage.DriverMattn, storage.DriverModernc, cfg.DBDriver)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	rateLimit, err := strconv.Atoi(getEnv("WRITE_RATE_LIMIT", "60"))
	if err != nil {
		return nil, fmt.Errorf("WRITE_RATE_LIMIT must be a valid integer: %w", err)
	}
	if rateLimit < 0 {
		return nil, fmt.Errorf("WRITE_RATE_LIMIT must not be negative")
	}
	cfg.WriteRateLimit = rateLimit

	shutdownTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be a valid duration: %w", err)
	}
	cfg.ShutdownTimeout = shutdownTimeout

	if _, err := strconv.Atoi(cfg.APIPort); err != nil {
		return nil, fmt.Errorf("API_PORT must be numeric: %w", err)
	}

	// Create the data directory for the database file
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// NewLogger builds the slog logger described by LogLevel and LogFormat, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: c.LogLevel,
	}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
