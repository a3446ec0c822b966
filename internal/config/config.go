// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Model serving
	ModelURL     string // Fraud classifier endpoint (optional; predictions 500 without it)
	ModelTimeout int    // Classifier call timeout in seconds

	// Alerting
	SMTPAddr string // host:port of the outbound mail relay (optional, logs emails if not set)
	SMTPFrom string // From address for subscriber alerts

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint for traces (optional)

	// Security
	RateLimitRPM   int
	AllowedOrigins string // comma-separated CORS origins, "*" for all
}

// Defaults
const (
	DefaultPort      = "8000"
	DefaultEnv       = "development"
	DefaultLogLevel  = "info"
	DefaultRateLimit = 300
	DefaultSMTPFrom  = "alerts@fraudlens.local"
	DefaultTimeout   = 10
)

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", DefaultPort),
		Env:            getEnv("ENV", DefaultEnv),
		LogLevel:       getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ModelURL:       os.Getenv("MODEL_URL"),
		ModelTimeout:   getEnvInt("MODEL_TIMEOUT_SECONDS", DefaultTimeout),
		SMTPAddr:       os.Getenv("SMTP_ADDR"),
		SMTPFrom:       getEnv("SMTP_FROM", DefaultSMTPFrom),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are well-formed
func (c *Config) Validate() error {
	if c.ModelURL != "" {
		u, err := url.Parse(c.ModelURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("MODEL_URL must be an absolute URL, got %q", c.ModelURL)
		}
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("MODEL_TIMEOUT_SECONDS must be positive")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
