package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port      string
	ServerURL string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// CacheConfig holds duplicate-cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// RateLimitConfig holds request rate limiting configuration
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Environment string
	Level       string
}

// LoadEnv reads a .env file if present. Missing files are fine; real
// environments set variables directly.
func LoadEnv() {
	_ = godotenv.Load()
}

// New creates a new config with the given parameters, filling unset values
// from the environment
func New(port, serverURL, driver, dsn string, cacheTTL time.Duration, rps float64, burst int, environment, level string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:      envDefault("PORT", port),
			ServerURL: envDefault("SERVER_URL", serverURL),
		},
		Database: DatabaseConfig{
			Driver: envDefault("DB_DRIVER", driver),
			DSN:    envDefault("DB_DSN", dsn),
		},
		Cache: CacheConfig{
			TTL: cacheTTL,
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		Logging: LoggingConfig{
			Environment: envDefault("ENVIRONMENT", environment),
			Level:       envDefault("LOG_LEVEL", level),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values
func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Server.ServerURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}

	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverSQLite {
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %v", c.Cache.TTL)
	}

	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive, got: %v", c.RateLimit.RPS)
	}

	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit burst must be positive, got: %v", c.RateLimit.Burst)
	}

	return nil
}

// envDefault returns the environment value for key, falling back to the
// flag-provided value when the variable is unset
func envDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
