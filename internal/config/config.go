package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port              string
	DataDir           string // Working directory for the embedded database file
	SnapshotPath      string // Persisted snapshot blob location
	Version           string
	LogLevel          string
	StaticDir         string // Dashboard static assets
	TopN              int    // Bucket cap for categorical charts
	SnapshotSoftLimit int64  // Soft size ceiling for persisted snapshots in bytes
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		DataDir:           getEnv("DATA_DIR", "data"),
		SnapshotPath:      getEnv("SNAPSHOT_PATH", "data/livegraphs.snapshot"),
		Version:           getEnv("VERSION", "1.0.0"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		StaticDir:         getEnv("STATIC_DIR", "static"),
		TopN:              getEnvInt("TOP_N", 10),
		SnapshotSoftLimit: int64(getEnvInt("SNAPSHOT_SOFT_LIMIT_BYTES", 5*1024*1024)),
	}

	return config
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	// Configure zerolog to output JSON without newlines
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Create logger with JSON output to stdout
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "livegraphs").
		Str("version", c.Version).
		Logger()

	// Set log level based on configuration
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
