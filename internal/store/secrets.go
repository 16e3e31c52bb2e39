package store

import (
	"database/sql"
	"time"
)

// Secret represents a row in vault_secrets.
type Secret struct {
	Category  string
	Name      string
	Value     string // encrypted ciphertext (base64)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PutSecret upserts a secret, keeping its original creation time.
func (d *DB) PutSecret(s Secret) error {
	now := time.Now()
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	_, err := d.conn.Exec(
		`INSERT INTO vault_secrets (category, name, value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(category, name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		s.Category, s.Name, s.Value, formatTime(s.UpdatedAt), formatTime(s.UpdatedAt),
	)
	return err
}

// GetSecret retrieves one secret including its encrypted value. Returns nil
// if not found.
func (d *DB) GetSecret(category, name string) (*Secret, error) {
	var s Secret
	var createdAt, updatedAt string
	err := d.conn.QueryRow(
		"SELECT category, name, value, created_at, updated_at FROM vault_secrets WHERE category = ? AND name = ?",
		category, name,
	).Scan(&s.Category, &s.Name, &s.Value, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

// ListSecrets returns secret metadata (no values) ordered by category then
// name. An empty category lists every secret.
func (d *DB) ListSecrets(category string) ([]Secret, error) {
	q := "SELECT category, name, created_at, updated_at FROM vault_secrets"
	var args []any
	if category != "" {
		q += " WHERE category = ?"
		args = append(args, category)
	}
	q += " ORDER BY category, name"

	rows, err := d.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var secrets []Secret
	for rows.Next() {
		var s Secret
		var createdAt, updatedAt string
		if err := rows.Scan(&s.Category, &s.Name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		s.CreatedAt = parseTime(createdAt)
		s.UpdatedAt = parseTime(updatedAt)
		secrets = append(secrets, s)
	}
	return secrets, rows.Err()
}

// DeleteSecret removes a secret. Returns the number of rows deleted.
func (d *DB) DeleteSecret(category, name string) (int64, error) {
	result, err := d.conn.Exec("DELETE FROM vault_secrets WHERE category = ? AND name = ?", category, name)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SecretCount returns the total number of secrets.
func (d *DB) SecretCount() (int, error) {
	var count int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM vault_secrets").Scan(&count)
	return count, err
}
