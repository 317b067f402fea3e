package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
)

const (
	dashboardCacheSize = 512
	shutdownTimeout    = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.DefaultConfig().Level)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.SlogLevel())

	if err := cfg.RequireAuth(); err != nil {
		logger.Error("Cannot serve the API", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	res := cli.MustOpenBackend(context.Background(), logger, cfg)
	signer := auth.NewSigner(cfg.AuthSecret)

	opts := []services.Option{
		services.WithSigner(signer, cfg.ShareTokenTTL),
		services.WithEvents(res.Events),
	}

	caches := cache.NewManager()
	if cfg.CacheTTL > 0 {
		dashboards := cache.NewLRUCache[analytics.Dashboard](dashboardCacheSize, cfg.CacheTTL)
		caches.Register(dashboards)
		opts = append(opts, services.WithDashboardCache(dashboards))
	}
	finance := services.NewFinanceService(res.Store, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Finance:   finance,
		Signer:    signer,
		Logger:    logger,
		RateLimit: ratelimit.DefaultConfig(),
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err, log.FieldOperation, log.OpShutdown)
		}
		caches.Stop()
		cli.CloseBackend(logger, res)
	})

	if cfg.CacheTTL > 0 {
		caches.StartCleanup(ctx, cfg.CacheTTL)
	}

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", res.Events != nil,
		"cache_ttl", cfg.CacheTTL)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cli.CloseBackend(logger, res)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
