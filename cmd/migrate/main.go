package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"academics/internal/config"
	"academics/internal/logger"
	"academics/internal/store"
)

// migrate applies pending schema migrations without starting the API, or
// lists the applied ones with -status.
func main() {
	status := flag.Bool("status", false, "list applied migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.LogError("invalid configuration", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *status); err != nil {
		logger.LogError("migrate failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.App, statusOnly bool) error {
	db, err := store.Open(ctx, store.Dialect(cfg.DBDriver), cfg.DatabaseURL, store.Options{MaxOpenConns: 1})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if !statusOnly {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}
	applied, err := db.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	for _, name := range applied {
		fmt.Println(name)
	}
	logger.LogInfo("migrations applied", "count", len(applied), "driver", cfg.DBDriver)
	return nil
}
