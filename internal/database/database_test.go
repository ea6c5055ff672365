package database

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNew_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "timer.db")

	db, err := New(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"projects", "work_sessions", "local_kv", "schema_migrations"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}

	var foreignKeys int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("query foreign_keys pragma: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("foreign keys not enabled: got %d, want 1", foreignKeys)
	}
}

func TestNew_IsReentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timer.db")
	logger := zaptest.NewLogger(t)

	first, err := New(path, logger)
	if err != nil {
		t.Fatalf("first New() failed: %v", err)
	}
	first.Close()

	second, err := New(path, logger)
	if err != nil {
		t.Fatalf("second New() failed: %v", err)
	}
	second.Close()
}
