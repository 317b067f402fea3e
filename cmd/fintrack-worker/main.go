package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.DefaultConfig().Level)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.SlogLevel()).WithComponent(log.ComponentWorker)

	logger.Info("Starting fintrack-worker")

	if !cfg.ReportsEnabled() {
		logger.Error("Report export disabled: GOOGLE_SPREADSHEET_ID is not set",
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	res := cli.MustOpenBackend(context.Background(), logger, cfg)
	consumer, ok := res.Events.(*amqp.Client)
	if !ok {
		logger.Error("AMQP broker unavailable: set AMQP_URL to a reachable broker",
			log.FieldErrorType, log.ErrorTypeConfiguration)
		cli.CloseBackend(logger, res)
		os.Exit(1)
	}

	sheets, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		cli.CloseBackend(logger, res)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	reports := worker.NewReportWorker(services.NewFinanceService(res.Store), sheets)

	consuming := make(chan struct{})
	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		<-consuming
		cli.CloseBackend(logger, res)
	})

	go func() {
		defer close(consuming)
		err := consumer.ConsumeTransactionEvents(ctx, reports.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
