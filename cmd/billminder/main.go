package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"billminder/internal/backend"
	"billminder/internal/cli"
	apphttp "billminder/internal/http"
	"billminder/internal/log"
	"billminder/internal/metrics"
	"billminder/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	m := metrics.New()
	res, err := backend.NewFactory(logger, m).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	bills := services.NewBillService(res.Repo, res.Publisher, logger)
	payments := services.NewPaymentService(res.Repo, bills, logger, m)
	reminders := services.NewReminderService(res.Repo, m, logger, cfg.ReminderLimit, cfg.UpcomingDays)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Bills:     bills,
		Payments:  payments,
		Reminders: reminders,
		Store:     res.Repo,
		Metrics:   m,
		Logger:    logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting billminder server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
