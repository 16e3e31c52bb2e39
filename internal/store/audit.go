package store

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry represents a row in vault_audit.
type AuditEntry struct {
	ID        string
	Action    string
	Filename  string
	Target    string
	Success   bool
	Error     string
	CreatedAt time.Time
}

// LogAudit writes an audit entry.
func (d *DB) LogAudit(entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	success := 0
	if entry.Success {
		success = 1
	}
	_, err := d.conn.Exec(
		`INSERT INTO vault_audit (id, action, filename, target, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.Filename, entry.Target, success, entry.Error,
		formatTime(entry.CreatedAt),
	)
	return err
}

// GetAuditLog retrieves recent audit entries, newest first.
func (d *DB) GetAuditLog(limit int) ([]AuditEntry, error) {
	rows, err := d.conn.Query(
		`SELECT id, action, filename, target, success, error, created_at FROM vault_audit
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var success int
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Action, &e.Filename, &e.Target, &success, &e.Error, &createdAt); err != nil {
			return nil, err
		}
		e.Success = success == 1
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
