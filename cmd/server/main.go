// Package main implements the entry point for the item API server, which
// serves item CRUD endpoints and runs bulk item processing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/phrazzld/item-api/internal/config"
	"github.com/phrazzld/item-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a database migration command (up, down, status, version) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("item-api: %v", err)
	}
}

// run loads configuration, connects to the database and either executes a
// migration command or serves HTTP until a shutdown signal arrives.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l := logger.Setup(cfg.Server)

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Int("processing_workers", cfg.Processing.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	if migrateCmd != "" {
		return runMigrations(ctx, db, migrateCmd, l)
	}

	if err := runMigrations(ctx, db, "up", l); err != nil {
		return err
	}

	app, err := newApplication(cfg, db, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.serve(ctx)
}
