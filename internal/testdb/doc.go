//go:build integration

// Package testdb provides helpers for tests that need a real PostgreSQL
// database.
//
// Tests obtain a migrated connection with GetTestDBWithT and run their body
// inside WithTx. The transaction is always rolled back, so tests can run in
// parallel against the same tables without cleaning up after themselves.
//
//	func TestItemStore(t *testing.T) {
//	    t.Parallel()
//
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        items := postgres.NewPostgresItemStore(tx, nil)
//	        ...
//	    })
//	}
//
// The connection string comes from DATABASE_URL, falling back to
// ITEMS_DATABASE_URL. Tests are skipped when neither is set.
package testdb
