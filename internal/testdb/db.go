//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/phrazzld/item-api/internal/platform/postgres"
)

// migrateOnce applies migrations a single time per test binary.
var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the connection string for the test database,
// or an empty string when none is configured.
func GetTestDatabaseURL() string {
	for _, key := range []string{"DATABASE_URL", "ITEMS_DATABASE_URL"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether database-backed tests should be skipped.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// GetTestDBWithT opens a connection to the test database, applies the
// embedded migrations and registers cleanup on t. The test is skipped when no
// database is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		t.Fatalf("failed to open test database %s: %v", maskDatabaseURL(dbURL), err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping test database %s: %v", maskDatabaseURL(dbURL), err)
	}

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, "up", slog.Default())
	})
	if migrateErr != nil {
		t.Fatalf("failed to migrate test database: %v", migrateErr)
	}

	return db
}

// maskDatabaseURL hides the password in a connection string.
func maskDatabaseURL(dbURL string) string {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	if parsed.User != nil {
		if _, ok := parsed.User.Password(); ok {
			parsed.User = url.UserPassword(parsed.User.Username(), "****")
		}
	}
	return fmt.Sprint(parsed)
}
