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

	"github.com/Rhymond/go-money"
)

type Config struct {
	// HTTP Server
	Port        string
	BindAddress string

	// Storage
	DataBackend    string
	SQLiteDBPath   string
	SeedCategories bool

	// Presentation
	Currency string
	Timezone string

	LogLevel string

	// AMQP change feed, disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	ShutdownTimeout time.Duration
}

var (
	validBackends  = []string{"memory", "sqlite"}
	validLogLevels = []string{"debug", "info", "warn", "warning", "error"}
)

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8081"),
		BindAddress: getEnv("BIND_ADDRESS", "127.0.0.1"),

		DataBackend:    getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/gastos.db"),
		SeedCategories: getEnvBool("SEED_CATEGORIES", true),

		Currency: strings.ToUpper(getEnv("CURRENCY", money.USD)),
		Timezone: getEnv("TIMEZONE", "Local"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "gastos"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "changes"),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddress + ":" + c.Port
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.BindAddress == "" {
		errors = append(errors, "bind address cannot be empty")
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
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
	}

	if money.GetCurrency(c.Currency) == nil {
		errors = append(errors, fmt.Sprintf("unknown currency code '%s'", c.Currency))
	}

	if c.Timezone != "" && c.Timezone != "Local" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
		}
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
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
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	} else if c.ShutdownTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at most 5 minutes", c.ShutdownTimeout))
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
