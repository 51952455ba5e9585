package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

// MigrationsTable is the goose version table.
const MigrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate runs a goose command (up, down, status, version, ...) against db
// using the migrations embedded in this package.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger, args ...string) error {
	if logger == nil {
		logger = slog.Default()
	}

	goose.SetBaseFS(embeddedMigrations)
	goose.SetTableName(MigrationsTable)
	goose.SetLogger(&gooseLogger{logger: logger.With(slog.String("component", "migrations"))})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, "migrations", args...); err != nil {
		return fmt.Errorf("migration %q failed: %w", command, err)
	}

	return nil
}
