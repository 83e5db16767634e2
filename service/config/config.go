package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr     string
	LogLevel       string
	MetricsEnabled bool

	// Database configuration
	DatabaseURL      string
	DBMaxConnections int
	// QueryTimeout bounds pool acquisition plus query execution for one request.
	QueryTimeout time.Duration
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	if port := os.Getenv("API_PORT"); port != "" {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil || p == 0 {
			errs = append(errs, fmt.Errorf("API_PORT: invalid port %q", port))
		} else {
			cfg.ServerAddr = fmt.Sprintf(":%d", p)
		}
	}
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	metricsEnabled, err := parseBool("METRICS_ENABLED", true)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MetricsEnabled = metricsEnabled
	}

	// Database configuration
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required"))
	}

	maxConns, err := parseInt("DB_MAX_CONNECTIONS", 5)
	if err != nil {
		errs = append(errs, err)
	} else if maxConns < 1 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1, got %d", maxConns))
	} else {
		cfg.DBMaxConnections = maxConns
	}

	queryTimeout, err := parseDuration("QUERY_TIMEOUT", "10s")
	if err != nil {
		errs = append(errs, err)
	} else if queryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("QUERY_TIMEOUT must be positive, got %v", queryTimeout))
	} else {
		cfg.QueryTimeout = queryTimeout
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DatabaseURL is required"))
	}

	if c.ServerAddr == "" {
		errs = append(errs, fmt.Errorf("ServerAddr is required"))
	}

	if c.DBMaxConnections < 1 {
		errs = append(errs, fmt.Errorf("DBMaxConnections must be at least 1"))
	}

	if c.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("QueryTimeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseBool parses a boolean from an environment variable or uses a default.
func parseBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, value, err)
	}
	return result, nil
}
