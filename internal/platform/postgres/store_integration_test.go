//go:build integration

package postgres_test

import (
	"testing"

	"github.com/phrazzld/hifz/internal/platform/postgres"
	"github.com/phrazzld/hifz/internal/store"
	"github.com/phrazzld/hifz/internal/store/storetest"
	"github.com/phrazzld/hifz/internal/testdb"
)

// Requires HIFZ_TEST_DATABASE_URL pointing at a disposable database.
func TestPostgresStore(t *testing.T) {
	testdb.Open(t)

	storetest.Run(t, func(t *testing.T) store.Store {
		db := testdb.Open(t)
		testdb.ResetTables(t, db)
		return postgres.NewStore(db, nil)
	})
}
