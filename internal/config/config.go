// Package config reads the server configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Preference store backends.
const (
	PrefsMemory   = "memory"
	PrefsSQLite   = "sqlite"
	PrefsRedis    = "redis"
	PrefsPostgres = "postgres"
)

type Config struct {
	// HTTP Server
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	CookieSecure   bool

	// Remote budgeting API
	APIBaseURL   string
	APITimeout   time.Duration
	APIToken     string
	APIJWTSecret string

	// Preferences
	PrefsBackend string
	SQLiteDBPath string
	RedisURL     string
	DatabaseURL  string

	// PrefsRetention bounds how long an untouched preference is kept by
	// the stores that support pruning.
	PrefsRetention      time.Duration
	MaintenanceInterval time.Duration

	// AMQP change notifications; empty URL disables them
	AMQPURL      string
	AMQPExchange string

	// Sessions
	SessionTTL time.Duration
	SessionMax int

	// POST rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", nil),
		CookieSecure:   getEnvBool("COOKIE_SECURE", false),

		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:3000/api"),
		APITimeout:   getEnvDuration("API_TIMEOUT", 10*time.Second),
		APIToken:     getEnv("API_TOKEN", ""),
		APIJWTSecret: getEnv("API_JWT_SECRET", ""),

		PrefsBackend: getEnv("PREFS_BACKEND", PrefsMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/orca.db"),
		RedisURL:     getEnv("REDIS_URL", ""),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		PrefsRetention:      getEnvDuration("PREFS_RETENTION", 90*24*time.Hour),
		MaintenanceInterval: getEnvDuration("MAINTENANCE_INTERVAL", time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "orca.budget-changes"),

		SessionTTL: getEnvDuration("SESSION_TTL", 12*time.Hour),
		SessionMax: getEnvInt("SESSION_MAX", 1000),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if u, err := url.Parse(c.APIBaseURL); err != nil || c.APIBaseURL == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s'", c.APIBaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}
	if c.APITimeout < 100*time.Millisecond || c.APITimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be between 100ms and 2m", c.APITimeout))
	}
	if c.APIToken != "" && c.APIJWTSecret != "" {
		errors = append(errors, "API_TOKEN and API_JWT_SECRET are mutually exclusive")
	}

	validBackends := []string{PrefsMemory, PrefsSQLite, PrefsRedis, PrefsPostgres}
	if !slices.Contains(validBackends, c.PrefsBackend) {
		errors = append(errors, fmt.Sprintf("invalid preferences backend '%s': must be one of %v", c.PrefsBackend, validBackends))
	}

	switch c.PrefsBackend {
	case PrefsSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case PrefsRedis:
		if c.RedisURL == "" {
			errors = append(errors, "REDIS_URL is required when using redis backend")
		}
	case PrefsPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	}

	if c.PrefsRetention < time.Hour {
		errors = append(errors, fmt.Sprintf("invalid preferences retention %v: must be at least 1 hour", c.PrefsRetention))
	}
	if c.MaintenanceInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid maintenance interval %v: must be at least 1 minute", c.MaintenanceInterval))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}
	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
