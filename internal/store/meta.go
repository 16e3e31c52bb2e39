package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Well-known vault_meta keys.
const (
	MetaSalt         = "salt"
	MetaVerification = "verification"
)

// SetMeta upserts a key-value pair in vault_meta.
func (d *DB) SetMeta(key, value string) error {
	return setMeta(d.conn, key, value)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setMeta(e execer, key, value string) error {
	_, err := e.Exec(
		`INSERT INTO vault_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetMeta returns the value for key, or "" when it is unset.
func (d *DB) GetMeta(key string) (string, error) {
	var value string
	err := d.conn.QueryRow("SELECT value FROM vault_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// Initialize records the salt and the password verification blob in one
// transaction. A vault counts as initialized once the salt is present, so a
// crash part way leaves no half-initialized vault behind.
func (d *DB) Initialize(salt, verification string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := setMeta(tx, MetaVerification, verification); err != nil {
		return fmt.Errorf("store verification: %w", err)
	}
	if err := setMeta(tx, MetaSalt, salt); err != nil {
		return fmt.Errorf("store salt: %w", err)
	}
	return tx.Commit()
}

// IsInitialized reports whether a salt has been stored.
func (d *DB) IsInitialized() (bool, error) {
	salt, err := d.GetMeta(MetaSalt)
	if err != nil {
		return false, err
	}
	return salt != "", nil
}
