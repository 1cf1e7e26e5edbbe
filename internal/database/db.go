package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	_ "modernc.org/sqlite"
)

// connPragmas run on every pooled connection. foreign_keys must be per
// connection or session_events would stop cascading.
var connPragmas = []string{
	"foreign_keys(ON)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// DB is the launcher's sqlite handle.
type DB struct {
	*sql.DB
}

// NewDB opens the sqlite file at dbPath, creating its parent directory.
// maxConns <= 0 keeps a single connection, which suits the single-writer
// history store.
func NewDB(dbPath string, maxConns int) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn, err := sqliteDSN(dbPath)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	conn.SetMaxOpenConns(max(maxConns, 1))
	conn.SetMaxIdleConns(max(maxConns, 1))

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	return &DB{conn}, nil
}

// sqliteDSN turns a filesystem path into a file: URI carrying connPragmas.
// Windows separators become forward slashes.
func sqliteDSN(dbPath string) (string, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}

	return "file:" + strings.ReplaceAll(abs, `\`, "/") + "?_pragma=" + strings.Join(connPragmas, "&_pragma="), nil
}

const schemaTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at INTEGER NOT NULL
)`

// Migrate applies every pending migration, each in its own transaction.
func (db *DB) Migrate() error {
	pending, err := db.pendingMigrations()
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := db.apply(m); err != nil {
			return err
		}
		logging.Component("database").Info("applied migration", "version", m.Version)
	}
	return nil
}

// Pending returns the versions not yet applied, in order.
func (db *DB) Pending() ([]string, error) {
	pending, err := db.pendingMigrations()
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(pending))
	for _, m := range pending {
		versions = append(versions, m.Version)
	}
	return versions, nil
}

func (db *DB) pendingMigrations() ([]Migration, error) {
	if _, err := db.Exec(schemaTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []Migration
	for _, m := range migrations {
		if !done[m.Version] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (db *DB) apply(m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %s: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.Up); err != nil {
		return fmt.Errorf("migration %s: %w", m.Version, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		m.Version, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("migration %s: record: %w", m.Version, err)
	}
	return tx.Commit()
}
