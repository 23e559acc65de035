package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/lecgen/internal/platform/postgres"
	"github.com/phrazzld/lecgen/internal/redact"
	"github.com/stretchr/testify/require"
)

// Environment variables holding the test database URL, in lookup order.
const (
	EnvDatabaseURL       = "DATABASE_URL"
	EnvTestDatabaseURL   = "LECGEN_TEST_DB_URL"
	EnvLecgenDatabaseURL = "LECGEN_DATABASE_URL"
)

var urlVars = []string{EnvDatabaseURL, EnvTestDatabaseURL, EnvLecgenDatabaseURL}

var (
	migrateOnce sync.Once
	migrateErr  error
)

// URL returns the first non-empty database URL variable, or "".
func URL() string {
	for _, name := range urlVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// IsCI reports whether the tests run in a CI environment.
func IsCI() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if v := os.Getenv(name); v != "" && v != "false" {
			return true
		}
	}
	return false
}

// Open connects to the test database and applies migrations once per test
// binary. The connection is closed when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := URL()
	if url == "" {
		if IsCI() {
			t.Fatalf("no database URL in CI; set one of %s", strings.Join(urlVars, ", "))
		}
		t.Skip("no database URL set, skipping PostgreSQL test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, url)
	require.NoError(t, err, "failed to open %s", redact.String(url))
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, "up", nil)
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	return db
}

// WithTx runs fn in a transaction that is always rolled back, so tests
// leave no rows behind and can run in parallel.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "failed to begin test transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
