// Package cli provides the initialization steps shared by cmd/gastos and
// cmd/gastos-backup.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gastos/internal/backend"
	"gastos/internal/config"
	"gastos/internal/events"
	applog "gastos/internal/log"
	"gastos/internal/services"
)

// SetupLogger builds the component logger for level and makes it the slog
// default.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig returns the validated config or the combined
// validation error.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Runtime is the wired data layer every command works against.
type Runtime struct {
	Config  *config.Config
	Backend *backend.BackendResult
	Bus     *events.Bus
	Ledger  *services.Ledger
}

// InitRuntime opens the configured store and builds the ledger on top of
// it. Default categories are seeded when enabled and the store is empty.
func InitRuntime(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*Runtime, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	bus := events.NewBus()
	ledger := services.NewLedger(res.Store, bus,
		services.WithLocation(cfg.Location()),
		services.WithCurrency(cfg.Currency),
		services.WithDashboardCache(100, 5*time.Minute))

	if cfg.SeedCategories {
		if _, err := ledger.SeedDefaults(ctx); err != nil {
			res.Cleanup()
			return nil, err
		}
	}

	return &Runtime{Config: cfg, Backend: res, Bus: bus, Ledger: ledger}, nil
}

func (r *Runtime) Close() error {
	if r.Backend != nil && r.Backend.Cleanup != nil {
		return r.Backend.Cleanup()
	}
	return nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
