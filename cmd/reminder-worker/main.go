package main

import (
	"time"

	"billminder/internal/cli"
	"billminder/internal/log"
	"billminder/internal/metrics"
	"billminder/internal/services"
	"billminder/internal/storage"
	"billminder/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentReminder)
	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	m := metrics.New()
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()
	repo := storage.WithLogging(sqliteRepo, logger, m)

	reminders := services.NewReminderService(repo, m, logger, cfg.ReminderLimit, cfg.UpcomingDays)
	loop := worker.NewReminderLoop(reminders, cfg.ReminderInterval, logger)

	logger.Info("Reminder pass configured",
		"interval", cfg.ReminderInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	_ = loop.Run(ctx)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Reminder-worker shutdown complete")
}
