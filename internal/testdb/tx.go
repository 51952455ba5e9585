//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

// WithTx runs fn inside a transaction that is rolled back when fn returns,
// including when fn panics.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Begin a transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	// Always roll back, even after a panic, so tests leave no data behind
	defer func() {
		if r := recover(); r != nil {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				t.Logf("failed to rollback transaction after panic: %v", err)
			}
			// Re-panic after cleanup
			// ALLOW-PANIC
			panic(r)
		}

		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to rollback transaction: %v", err)
		}
	}()

	// Run the test function with the transaction
	fn(t, tx)
}
