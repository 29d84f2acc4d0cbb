// Package testdb provides PostgreSQL helpers for integration tests. Tests
// skip locally when no database is configured and fail in CI.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/hifz/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// Environment variables consulted for the test database, in order.
const (
	EnvTestDatabaseURL = "HIFZ_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// TestTimeout bounds setup and cleanup statements.
const TestTimeout = 5 * time.Second

// GetTestDatabaseURL returns the first non-empty database URL variable.
func GetTestDatabaseURL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// isCIEnvironment checks the variables set by common CI providers.
func isCIEnvironment() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// Open connects to the test database and applies all migrations. The
// connection is closed when t finishes; closing it earlier is fine. Without
// a configured URL the test is skipped, or failed when running in CI.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := GetTestDatabaseURL()
	if dsn == "" {
		if isCIEnvironment() {
			t.Fatalf("%s must be set in CI", EnvTestDatabaseURL)
		}
		t.Skipf("%s not set, skipping database test", EnvTestDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, dsn, nil)
	require.NoError(t, err, "failed to connect to %s", postgres.MaskDatabaseURL(dsn))
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db, "up", nil), "failed to run migrations")
	return db
}

// ResetTables deletes every row the stores write.
func ResetTables(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx, "TRUNCATE memorization_records, streaks")
	require.NoError(t, err, "failed to truncate tables")
}
