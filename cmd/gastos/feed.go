package main

import (
	"context"

	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/config"
	"gastos/internal/events"
	applog "gastos/internal/log"
)

const forwardBuffer = 256

// startChangeFeed relays committed changes from bus to the AMQP exchange.
// When the broker cannot be reached the server keeps running without the
// feed. The returned stop func detaches the forwarder and closes the client.
func startChangeFeed(ctx context.Context, g *errgroup.Group, cfg *config.Config, bus *events.Bus, logger *applog.Logger) (stop func()) {
	if cfg.AMQPURL == "" {
		return func() {}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		logger.Warn("Change feed disabled, AMQP broker unreachable", applog.FieldError, err.Error())
		return func() {}
	}

	fwd := amqp.NewForwarder(client, forwardBuffer)
	unsubscribe := fwd.Attach(bus)
	g.Go(func() error { return fwd.Run(ctx) })
	logger.Info("Change feed enabled", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)

	return func() {
		unsubscribe()
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", applog.FieldError, err.Error())
		}
	}
}
