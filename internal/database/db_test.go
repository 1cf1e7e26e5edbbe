package database

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDBAndMigrate(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "data", "test.db")

	db, err := NewDB(dbPath, 1)
	if err != nil {
		t.Fatalf("failed to create db: %v", err)
	}
	defer db.Close()

	pending, err := db.Pending()
	if err != nil {
		t.Fatalf("failed to list pending migrations: %v", err)
	}
	if len(pending) != len(migrations) {
		t.Fatalf("expected %d pending migrations, got %v", len(migrations), pending)
	}

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	// A second run is a no-op.
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to re-run migrate: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("failed to query migrations: %v", err)
	}
	if count != len(migrations) {
		t.Fatalf("expected %d applied migrations, got %d", len(migrations), count)
	}

	pending, err = db.Pending()
	if err != nil {
		t.Fatalf("failed to list pending migrations: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %v", pending)
	}
}

func TestSessionEventsCascade(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "cascade.db"), 1)
	if err != nil {
		t.Fatalf("failed to create db: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO sessions (id, game_id, status, started_at) VALUES ('s1', 'g', 'running', 1)`); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO session_events (session_id, type, created_at) VALUES ('s1', 'launched', 1)`); err != nil {
		t.Fatalf("insert event: %v", err)
	}
	if _, err := db.Exec(`DELETE FROM sessions WHERE id = 's1'`); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM session_events`).Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected events to cascade, got %d", count)
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn, err := sqliteDSN(filepath.Join("data", "launcher.db"))
	if err != nil {
		t.Fatalf("sqliteDSN: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, `\`) {
		t.Fatalf("expected a forward-slash file URI, got %q", dsn)
	}
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if !strings.HasSuffix(path, "data/launcher.db") {
		t.Fatalf("expected absolute path ending in data/launcher.db, got %q", path)
	}
	for _, pragma := range []string{"foreign_keys(ON)", "busy_timeout(5000)", "journal_mode(WAL)"} {
		if !strings.Contains(query, "_pragma="+pragma) {
			t.Fatalf("expected pragma %s in %q", pragma, query)
		}
	}
}

func TestMigrateRecordsApplyTime(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "stamp.db"), 0)
	if err != nil {
		t.Fatalf("failed to create db: %v", err)
	}
	defer db.Close()

	before := time.Now().UnixMilli()
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	var version string
	var appliedAt int64
	if err := db.QueryRow(`SELECT version, applied_at FROM schema_migrations ORDER BY version LIMIT 1`).Scan(&version, &appliedAt); err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if version != migrations[0].Version {
		t.Fatalf("expected first version %s, got %s", migrations[0].Version, version)
	}
	if appliedAt < before {
		t.Fatalf("expected applied_at >= %d, got %d", before, appliedAt)
	}
}
