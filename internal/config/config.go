package config

import (
	"os"
	"strconv"
	"strings"

	"labfit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Solver   SolverConfig
	Report   ReportConfig
	Batch    BatchConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings. An empty URL disables
// the result store.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// Enabled reports whether a result store is configured
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// DSN returns the connection string with SSLMode applied. An sslmode already
// present in URL wins. Both URL and key=value forms are accepted.
func (c DatabaseConfig) DSN() string {
	if c.URL == "" || c.SSLMode == "" || strings.Contains(c.URL, "sslmode=") {
		return c.URL
	}
	if strings.Contains(c.URL, "://") {
		sep := "?"
		if strings.Contains(c.URL, "?") {
			sep = "&"
		}
		return c.URL + sep + "sslmode=" + c.SSLMode
	}
	return c.URL + " sslmode=" + c.SSLMode
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	UIPort  string
	GinMode string
}

// SolverConfig tunes the Levenberg-Marquardt solver
type SolverConfig struct {
	MaxIterations int
	FTol          float64
	XTol          float64
	GTol          float64
}

// ReportConfig controls report rendering
type ReportConfig struct {
	Digits int
}

// BatchConfig controls plan execution
type BatchConfig struct {
	Workers int
}

// Default tolerances match MINPACK's sqrt(machine epsilon)
const (
	DefaultMaxIterations = 200
	DefaultTolerance     = 1.49012e-8
	DefaultDigits        = 7
	DefaultWorkers       = 4
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			UIPort:  getEnvOrDefault("UI_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Solver: SolverConfig{
			MaxIterations: getEnvIntOrDefault("NLS_MAX_ITER", DefaultMaxIterations),
			FTol:          getEnvFloatOrDefault("NLS_FTOL", DefaultTolerance),
			XTol:          getEnvFloatOrDefault("NLS_XTOL", DefaultTolerance),
			GTol:          getEnvFloatOrDefault("NLS_GTOL", 0),
		},
		Report: ReportConfig{
			Digits: getEnvIntOrDefault("REPORT_DIGITS", DefaultDigits),
		},
		Batch: BatchConfig{
			Workers: getEnvIntOrDefault("FIT_WORKERS", DefaultWorkers),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{SSLMode: "disable"},
		Server:   ServerConfig{Port: "8080", UIPort: "8081", GinMode: "release"},
		Solver: SolverConfig{
			MaxIterations: DefaultMaxIterations,
			FTol:          DefaultTolerance,
			XTol:          DefaultTolerance,
		},
		Report:   ReportConfig{Digits: DefaultDigits},
		Batch:    BatchConfig{Workers: DefaultWorkers},
		LogLevel: "INFO",
	}
}

func validateConfig(config *Config) error {
	if config.Solver.MaxIterations <= 0 {
		return errors.ConfigInvalid("NLS_MAX_ITER must be positive")
	}
	if config.Solver.FTol < 0 || config.Solver.XTol < 0 || config.Solver.GTol < 0 {
		return errors.ConfigInvalid("NLS tolerances must not be negative")
	}
	if config.Report.Digits <= 0 || config.Report.Digits > 17 {
		return errors.ConfigInvalid("REPORT_DIGITS must be between 1 and 17")
	}
	if config.Batch.Workers <= 0 {
		return errors.ConfigInvalid("FIT_WORKERS must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
