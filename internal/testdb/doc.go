// Package testdb provides PostgreSQL helpers for integration tests.
//
// Tests that need a database call Open, which skips the test when no
// database URL is configured locally and fails it in CI, where a database
// is expected. Each test then isolates its writes with WithTx:
//
//	db := testdb.Open(t)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//		s := postgres.NewPostgresAttemptStore(tx, nil)
//		...
//	})
//
// The URL is read from DATABASE_URL, LECGEN_TEST_DB_URL or
// LECGEN_DATABASE_URL, in that order.
package testdb
