package vault

import "time"

// Status describes the current state of the vault.
type Status struct {
	Initialized bool  `json:"initialized"`
	Locked      bool  `json:"locked"`
	FileCount   int   `json:"file_count"`
	TotalSize   int64 `json:"total_size"`
	SecretCount int   `json:"secret_count"`
}

// Report is the status plus the most recent uploads.
type Report struct {
	Status
	Recent []File `json:"recent"`
}

// File is the metadata of one stored file.
type File struct {
	Filename   string    `json:"filename"`
	SHA256     string    `json:"sha256"`
	Size       int64     `json:"size"`
	Location   string    `json:"location"`
	Mode       string    `json:"mode"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Secret is the metadata of one stored secret. Values are only returned by
// SecretValue.
type Secret struct {
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuditEvent is one recorded operation.
type AuditEvent struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Filename  string    `json:"filename"`
	Target    string    `json:"target"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Audit actions.
const (
	ActionLogin        = "login"
	ActionLogout       = "logout"
	ActionUpload       = "upload"
	ActionDownload     = "download"
	ActionSecretAdd    = "secret:add"
	ActionSecretView   = "secret:view"
	ActionSecretDelete = "secret:delete"
	ActionSecretRotate = "secret:rotate"
)

// Audit targets.
const (
	TargetFiles   = "files"
	TargetSecrets = "secrets"
	TargetSession = "session"
)
