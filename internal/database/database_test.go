package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMigrateSQLite_Idempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "app.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	applied, err := MigrateSQLite(ctx, db)
	if err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied=%d, want 2", applied)
	}
	applied, err = MigrateSQLite(ctx, db)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if applied != 0 {
		t.Fatalf("second run applied=%d, want 0", applied)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM todos`).Scan(&n); err != nil {
		t.Fatalf("todos table missing: %v", err)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
