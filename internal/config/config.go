// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported entry stores.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the diary server.
type Config struct {
	Addr   string
	WebDir string

	Store       string
	SQLitePath  string
	DatabaseURL string

	BackgroundSource  string
	BackgroundTimeout time.Duration
	CanvasMaxWidth    int

	// OwnerPassword enables the login gate when non-empty.
	OwnerPassword string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, after applying an optional
// .env file in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              getEnv("ADDR", ":8080"),
		WebDir:            getEnv("WEB_DIR", "web"),
		Store:             getEnv("STORE", StoreSQLite),
		SQLitePath:        getEnv("SQLITE_PATH", "diary.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		BackgroundSource:  getEnv("BACKGROUND_SOURCE", "images/soccer_field.png"),
		BackgroundTimeout: getEnvDuration("BACKGROUND_TIMEOUT", 10*time.Second),
		CanvasMaxWidth:    getEnvInt("CANVAS_MAX_WIDTH", 700),
		OwnerPassword:     os.Getenv("DIARY_PASSWORD"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}
	return cfg, cfg.Validate()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE must be sqlite, postgres or memory, got %q", c.Store)
	}
	if c.CanvasMaxWidth <= 0 {
		return fmt.Errorf("CANVAS_MAX_WIDTH must be positive, got %d", c.CanvasMaxWidth)
	}
	if c.BackgroundTimeout <= 0 {
		return fmt.Errorf("BACKGROUND_TIMEOUT must be positive, got %v", c.BackgroundTimeout)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
