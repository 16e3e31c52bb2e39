package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createSchema = `
CREATE TABLE IF NOT EXISTS vault_files (
	filename    TEXT PRIMARY KEY,
	sha256      TEXT NOT NULL,
	size        INTEGER NOT NULL,
	location    TEXT NOT NULL,
	mode        TEXT NOT NULL,
	uploaded_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vault_secrets (
	category   TEXT NOT NULL,
	name       TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (category, name)
);

CREATE TABLE IF NOT EXISTS vault_audit (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	filename   TEXT NOT NULL DEFAULT '',
	target     TEXT NOT NULL DEFAULT '',
	success    INTEGER NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vault_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_uploaded ON vault_files(uploaded_at);
CREATE INDEX IF NOT EXISTS idx_audit_created ON vault_audit(created_at);
`

// DB wraps a *sql.DB with vault-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the vault database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(createSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
