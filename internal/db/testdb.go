package db

import (
	"database/sql"
	"testing"
	"time"
)

// NewTestDB opens a private in-memory premik database with every migration
// applied, so the users, tokens, drafts and submissions tables are ready.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// AgeDraft backdates the stored draft in slot to updatedAt.
func AgeDraft(t *testing.T, db *sql.DB, slot string, updatedAt time.Time) {
	t.Helper()

	res, err := db.Exec(`UPDATE drafts SET updated_at = ? WHERE slot = ?`,
		updatedAt.UTC().Format("2006-01-02 15:04:05"), slot)
	if err != nil {
		t.Fatalf("aging draft %q: %v", slot, err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Fatalf("aging draft %q: no such slot", slot)
	}
}
