package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// defaultSessionSecret is accepted in dev only.
const defaultSessionSecret = "dev-secret-change-in-production"

type Config struct {
	Env      string
	LogLevel string
	Port     uint16

	// DatabaseUrl selects the Postgres pincode directory. Empty uses the
	// built-in seed directory.
	DatabaseUrl string

	SessionSecret string
	CookieDomain  string
	// CORSOrigins is a comma-separated allow list for browser callers.
	CORSOrigins string

	Pincode   PincodeConfig
	RateLimit RateLimitConfig
	NATS      NATSConfig
	Sentry    SentryConfig

	MetricsNamespace string
}

// PincodeConfig configures lookups, both server-side and from the CLI.
type PincodeConfig struct {
	// APIURL is where the CLI sends lookups and submissions.
	APIURL        string
	LookupTimeout time.Duration
}

// RateLimitConfig throttles GET /pincode/{code} per client IP.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             uint16
}

// NATSConfig configures the submitted-address publisher. An empty URL
// logs submissions instead of publishing them.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string
	SampleRate  float64
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	if err := godotenv.Load(); err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Debug(".env file not found, using environment variables and defaults")
		}
	}

	port := getEnvInt("PORT", 3000)
	cfg := &Config{
		Env:           getEnv("ENV", "dev"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          port,
		DatabaseUrl:   getEnv("DATABASE_URL", ""),
		SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),
		CookieDomain:  getEnv("COOKIE_DOMAIN", ""),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:5173"),
		Pincode: PincodeConfig{
			APIURL:        getEnv("PINCODE_API_URL", fmt.Sprintf("http://localhost:%d", port)),
			LookupTimeout: getEnvDuration("LOOKUP_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 10),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "pinfill.address"),
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Enabled:     getEnvBool("SENTRY_ENABLED", false),
			Environment: getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:     getEnv("SENTRY_RELEASE", ""),
			SampleRate:  getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
		},
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "pinfill"),
	}

	// Validate env
	if cfg.Env != "dev" && cfg.Env != "prod" {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Env == "prod" && cfg.SessionSecret == defaultSessionSecret {
		return nil, fmt.Errorf("SESSION_SECRET must be set in production environment")
	}
	if cfg.Pincode.LookupTimeout <= 0 {
		return nil, fmt.Errorf("LOOKUP_TIMEOUT must be positive")
	}

	return cfg, nil
}

// IsDev reports whether development-only routes may be served.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var floatValue float64
		if _, err := fmt.Sscanf(value, "%f", &floatValue); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
