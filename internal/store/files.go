package store

import (
	"database/sql"
	"time"
)

// File represents a row in vault_files.
type File struct {
	Filename   string
	SHA256     string
	Size       int64
	Location   string // blob path relative to the vault directory
	Mode       string
	UploadedAt time.Time
}

// PutFile upserts a file record. Re-uploading a filename replaces it.
func (d *DB) PutFile(f File) error {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now()
	}
	_, err := d.conn.Exec(
		`INSERT INTO vault_files (filename, sha256, size, location, mode, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
			sha256 = excluded.sha256,
			size = excluded.size,
			location = excluded.location,
			mode = excluded.mode,
			uploaded_at = excluded.uploaded_at`,
		f.Filename, f.SHA256, f.Size, f.Location, f.Mode, formatTime(f.UploadedAt),
	)
	return err
}

// GetFile retrieves a file record by name. Returns nil if not found.
func (d *DB) GetFile(filename string) (*File, error) {
	var f File
	var uploadedAt string
	err := d.conn.QueryRow(
		"SELECT filename, sha256, size, location, mode, uploaded_at FROM vault_files WHERE filename = ?",
		filename,
	).Scan(&f.Filename, &f.SHA256, &f.Size, &f.Location, &f.Mode, &uploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	f.UploadedAt = parseTime(uploadedAt)
	return &f, nil
}

// ListFiles returns all file records, most recently uploaded first.
func (d *DB) ListFiles() ([]File, error) {
	rows, err := d.conn.Query(
		"SELECT filename, sha256, size, location, mode, uploaded_at FROM vault_files ORDER BY uploaded_at DESC, filename",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		var uploadedAt string
		if err := rows.Scan(&f.Filename, &f.SHA256, &f.Size, &f.Location, &f.Mode, &uploadedAt); err != nil {
			return nil, err
		}
		f.UploadedAt = parseTime(uploadedAt)
		files = append(files, f)
	}
	return files, rows.Err()
}

// FileStats returns the number of stored files and their total plaintext size.
func (d *DB) FileStats() (count int, total int64, err error) {
	err = d.conn.QueryRow("SELECT COUNT(*), COALESCE(SUM(size), 0) FROM vault_files").Scan(&count, &total)
	return count, total, err
}

// DeleteFile removes a file record. Returns the number of rows deleted.
func (d *DB) DeleteFile(filename string) (int64, error) {
	result, err := d.conn.Exec("DELETE FROM vault_files WHERE filename = ?", filename)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
