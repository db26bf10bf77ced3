package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"gastos/internal/cli"
	"gastos/internal/config"
	apphttp "gastos/internal/http"
	applog "gastos/internal/log"
	"gastos/internal/prefs"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		// The level is not known yet.
		cli.SetupLogger("info").Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	start := time.Now()
	if err := run(logger, cfg); err != nil {
		logger.Error("Server error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", "uptime", time.Since(start).Round(time.Second).String())
}

func run(logger *applog.Logger, cfg *config.Config) error {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	rt, err := cli.InitRuntime(ctx, logger.Logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize runtime: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("Failed to close store", applog.FieldError, err.Error())
		}
	}()

	p := prefs.New(rt.Backend.Store)
	if err := p.Load(ctx); err != nil {
		logger.Warn("Using default preferences", applog.FieldError, err.Error())
	}

	srv := apphttp.NewServer(cfg.Addr(), rt.Ledger, p,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(rt.Backend.Ping))
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	stopFeed := startChangeFeed(gctx, g, cfg, rt.Bus, logger)
	defer stopFeed()

	g.Go(func() error {
		logger.Info("Starting gastos server",
			"addr", cfg.Addr(),
			"backend", cfg.DataBackend,
			"currency", cfg.Currency,
			"timezone", cfg.Location().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
