package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/item-api/internal/platform/postgres"
)

// supportedMigrationCommands lists the goose commands accepted by -migrate.
var supportedMigrationCommands = map[string]bool{
	"up":      true,
	"down":    true,
	"status":  true,
	"version": true,
}

// runMigrations validates the command and applies it with the embedded
// migration files.
func runMigrations(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	if !supportedMigrationCommands[command] {
		return fmt.Errorf("unsupported migration command %q", command)
	}

	logger.Info("executing migrations", slog.String("command", command))
	if err := postgres.Migrate(ctx, db, command, logger); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
