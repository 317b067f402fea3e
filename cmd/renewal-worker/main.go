package main

import (
	"context"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.DefaultConfig().Level)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.SlogLevel()).WithComponent(log.ComponentRenewal)

	logger.Info("Starting renewal-worker", "interval", cfg.RenewalInterval, "backend", cfg.DataBackend)

	res := cli.MustOpenBackend(context.Background(), logger, cfg)
	if res.Events == nil {
		logger.Info("AMQP disabled: booked renewals will not refresh reports")
	}

	finance := services.NewFinanceService(res.Store, services.WithEvents(res.Events))
	scheduler := services.NewRenewalScheduler(
		services.NewRenewalProcessor(res.Store, finance),
		services.RenewalSchedulerConfig{Interval: cfg.RenewalInterval},
	)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Error("Renewal scheduler stop failed", log.FieldError, err, log.FieldOperation, log.OpShutdown)
		}
		cli.CloseBackend(logger, res)
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start renewal scheduler", log.FieldError, err)
		cli.CloseBackend(logger, res)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Renewal-worker shutdown complete")
}
