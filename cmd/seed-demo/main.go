package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"os"

	"billminder/internal/cli"
	"billminder/internal/log"
	"billminder/internal/seed"
)

func main() {
	bills := flag.Int("bills", seed.DefaultBills, "number of demo bills")
	payments := flag.Int("payments", seed.DefaultPayments, "number of extra demo payments (negative for none)")
	seedValue := flag.Uint64("seed", 0, "random seed for a reproducible data set (0 picks one)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentSeed)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	opts := seed.Options{Bills: *bills, Payments: *payments}
	if *seedValue != 0 {
		opts.Rand = rand.New(rand.NewPCG(*seedValue, *seedValue))
	}

	res, err := seed.Run(context.Background(), repo, opts, logger)
	if err != nil {
		logger.Error("Seeding failed", log.FieldError, err, "sqlite_db", cfg.SQLiteDBPath)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("Seeded demo data",
		"sqlite_db", cfg.SQLiteDBPath,
		"bills", len(res.Bills),
		"payments", len(res.Payments))
}
