// Command migrate-remote performs the one-time transfer of a locally stored
// ledger into the remote document store for the configured user. The local
// backend (file or sqlite) comes from the same configuration as the server.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"budgetbook/internal/backend"
	"budgetbook/internal/config"
	gsheet "budgetbook/internal/sheets/google"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.DataBackend == "sheets" {
		logger.Error("Local backend must be file or sqlite to migrate from")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize local backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	ledger, err := result.Gateway.Load(ctx)
	if err != nil {
		logger.Error("Failed to load local ledger", "error", err)
		os.Exit(1)
	}
	if len(ledger) == 0 {
		logger.Info("Local ledger is empty, nothing to migrate")
		return
	}

	remote, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	if err := remote.MigrateLocalToRemote(ctx, cfg.UserID, ledger); err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Migration complete", "user", cfg.UserID, "months", len(ledger))
}
