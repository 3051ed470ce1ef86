package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/openrange/elkhorn/db"
)

// CreateTestDB opens a migrated analytics store in a per-test temp
// directory. A file-backed store (not :memory:) because the connection
// pool would otherwise hand each connection its own empty database.
// Cleanup is registered via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	store, err := db.OpenWithMigrations(filepath.Join(t.TempDir(), "elkhorn_test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
