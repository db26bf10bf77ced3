package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) Config {
	return Config{
		Port:            "8081",
		BindAddress:     "127.0.0.1",
		DataBackend:     "sqlite",
		SQLiteDBPath:    filepath.Join(t.TempDir(), "gastos.db"),
		Currency:        "USD",
		Timezone:        "UTC",
		LogLevel:        "info",
		AMQPExchange:    "gastos",
		AMQPRoutingKey:  "changes",
		ShutdownTimeout: 30 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errorString string
	}{
		{name: "valid sqlite backend config", mutate: func(*Config) {}},
		{name: "valid memory backend config", mutate: func(c *Config) { c.DataBackend = "memory"; c.SQLiteDBPath = "" }},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			errorString: "invalid data backend 'sheets': must be one of [memory sqlite]",
		},
		{
			name:        "sqlite backend missing database path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name:        "unknown currency",
			mutate:      func(c *Config) { c.Currency = "XXQ" },
			errorString: "unknown currency code 'XXQ'",
		},
		{
			name:        "invalid timezone",
			mutate:      func(c *Config) { c.Timezone = "Mars/Olympus" },
			errorString: "invalid timezone 'Mars/Olympus'",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "invalid AMQP URL scheme",
			mutate:      func(c *Config) { c.AMQPURL = "http://localhost:5672/" },
			errorString: "invalid AMQP URL scheme 'http': must be 'amqp' or 'amqps'",
		},
		{
			name:        "AMQP URL without exchange",
			mutate:      func(c *Config) { c.AMQPURL = "amqp://localhost:5672/"; c.AMQPExchange = "" },
			errorString: "AMQP exchange name cannot be empty when AMQP URL is provided",
		},
		{
			name:        "shutdown timeout too small",
			mutate:      func(c *Config) { c.ShutdownTimeout = 10 * time.Millisecond },
			errorString: "invalid shutdown timeout 10ms: must be at least 1 second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errorString)
			}
			if !strings.Contains(err.Error(), tt.errorString) {
				t.Fatalf("error %q does not contain %q", err.Error(), tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "abc"
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Count(err.Error(), "\n- ") != 2 {
		t.Fatalf("expected two listed problems, got:\n%s", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "BIND_ADDRESS", "DATA_BACKEND", "SQLITE_DB_PATH", "CURRENCY",
		"TIMEZONE", "SEED_CATEGORIES", "LOG_LEVEL", "AMQP_URL", "AMQP_EXCHANGE", "AMQP_ROUTING_KEY", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Addr() != "127.0.0.1:8081" {
		t.Fatalf("unexpected addr %s", cfg.Addr())
	}
	if cfg.DataBackend != "sqlite" || cfg.SQLiteDBPath != "./data/gastos.db" {
		t.Fatalf("unexpected storage defaults: %+v", cfg)
	}
	if !cfg.SeedCategories || cfg.Currency != "USD" || cfg.AMQPURL != "" || cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Location() != time.Local {
		t.Fatalf("expected local timezone by default")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SEED_CATEGORIES", "false")
	t.Setenv("CURRENCY", "eur")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "x.db"))

	cfg := Load()
	if cfg.Port != "9090" || cfg.DataBackend != "memory" || cfg.SeedCategories {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Currency != "EUR" || cfg.Location() != time.UTC || cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config from env, got %v", err)
	}
}
