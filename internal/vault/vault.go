package vault

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lovincyrus/vault-console/internal/crypto"
	"github.com/lovincyrus/vault-console/internal/store"
)

var (
	ErrLocked         = errors.New("vault is locked")
	ErrNotInitialized = errors.New("vault is not initialized")
	ErrAlreadyInit    = errors.New("vault is already initialized")
	ErrWrongPassword  = errors.New("wrong password")
	ErrNotFound       = errors.New("not found")
	ErrInvalidName    = errors.New("invalid name")
)

const (
	dbFile       = "vault.db"
	blobDir      = "files"
	modeSealed   = "encrypted"
	verifyMarker = "vault-console-verification"
)

// Vault is the main entry point for vault operations.
type Vault struct {
	mu         sync.RWMutex
	db         *store.DB
	session    *Session
	dir        string
	salt       []byte // loaded on first login, used for HKDF subkey derivation
	sessionTTL time.Duration
}

// Open opens an existing vault directory.
func Open(dir string) (*Vault, error) {
	if _, err := os.Stat(filepath.Join(dir, dbFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}
	db, err := store.Open(filepath.Join(dir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Vault{db: db, dir: dir, sessionTTL: DefaultSessionTTL}, nil
}

// Init creates a new vault: generates the salt and stores the verification
// ciphertext for the master password.
func Init(dir, password string) error {
	if password == "" {
		return errors.New("password required")
	}
	if err := os.MkdirAll(filepath.Join(dir, blobDir), 0700); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}
	dbPath := filepath.Join(dir, dbFile)
	if _, err := os.Stat(dbPath); err == nil {
		return ErrAlreadyInit
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	defer db.Close()

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	key := crypto.DeriveKey([]byte(password), salt)
	defer crypto.Zero(key)

	verifyKey, err := crypto.DeriveSubkey(key, salt, crypto.PurposeVerify)
	if err != nil {
		return err
	}
	verification, err := crypto.SealString(verifyKey, verifyMarker, nil)
	crypto.Zero(verifyKey)
	if err != nil {
		return fmt.Errorf("create verification: %w", err)
	}

	return db.Initialize(base64.StdEncoding.EncodeToString(salt), verification)
}

// SetSessionTTL changes the idle lifetime of sessions created afterwards.
func (v *Vault) SetSessionTTL(ttl time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if ttl > 0 {
		v.sessionTTL = ttl
	}
}

// Login checks the master password and issues a session token. The first
// successful login unlocks the vault; later ones join the same session.
func (v *Vault) Login(password string) (token string, expires time.Time, err error) {
	defer func() { v.record(ActionLogin, "", TargetSession, err) }()

	salt, err := v.loadSalt()
	if err != nil {
		return "", time.Time{}, err
	}
	key := crypto.DeriveKey([]byte(password), salt)
	defer crypto.Zero(key)

	if err := v.verify(key, salt); err != nil {
		return "", time.Time{}, err
	}

	v.mu.Lock()
	if v.session == nil {
		var s *Session
		s = NewSession(key, v.sessionTTL, func() {
			v.mu.Lock()
			if v.session == s {
				v.session = nil
			}
			v.mu.Unlock()
		})
		v.session = s
		v.salt = salt
	}
	session := v.session
	v.mu.Unlock()

	return session.Issue()
}

func (v *Vault) loadSalt() ([]byte, error) {
	saltB64, err := v.db.GetMeta(store.MetaSalt)
	if err != nil {
		return nil, err
	}
	if saltB64 == "" {
		return nil, ErrNotInitialized
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	return salt, nil
}

func (v *Vault) verify(key, salt []byte) error {
	verification, err := v.db.GetMeta(store.MetaVerification)
	if err != nil {
		return err
	}
	verifyKey, err := crypto.DeriveSubkey(key, salt, crypto.PurposeVerify)
	if err != nil {
		return err
	}
	defer crypto.Zero(verifyKey)

	marker, err := crypto.OpenString(verifyKey, verification, nil)
	if err != nil || marker != verifyMarker {
		return ErrWrongPassword
	}
	return nil
}

// Logout revokes one session token. The vault stays unlocked for other
// tokens until it idles out or Lock is called.
func (v *Vault) Logout(token string) {
	v.mu.RLock()
	s := v.session
	v.mu.RUnlock()
	if s != nil {
		s.Revoke(token)
	}
	v.record(ActionLogout, "", TargetSession, nil)
}

// Lock destroys the session and zeroes the master key.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session != nil {
		v.session.Destroy()
		v.session = nil
	}
}

// ValidateToken checks a session token and slides its expiry.
func (v *Vault) ValidateToken(token string) bool {
	v.mu.RLock()
	s := v.session
	v.mu.RUnlock()
	if s == nil {
		return false
	}
	return s.Validate(token)
}

// Status returns the current vault status.
func (v *Vault) Status() (*Status, error) {
	init, err := v.db.IsInitialized()
	if err != nil {
		return nil, err
	}
	status := &Status{Initialized: init, Locked: true}

	v.mu.RLock()
	status.Locked = v.session == nil
	v.mu.RUnlock()

	if init && !status.Locked {
		if status.FileCount, status.TotalSize, err = v.db.FileStats(); err != nil {
			return nil, err
		}
		if status.SecretCount, err = v.db.SecretCount(); err != nil {
			return nil, err
		}
	}
	return status, nil
}

// Report returns the status and up to recent of the newest files.
func (v *Vault) Report(recent int) (*Report, error) {
	if _, err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	status, err := v.Status()
	if err != nil {
		return nil, err
	}
	recs, err := v.db.ListFiles()
	if err != nil {
		return nil, err
	}
	if recent >= 0 && len(recs) > recent {
		recs = recs[:recent]
	}
	report := &Report{Status: *status, Recent: make([]File, len(recs))}
	for i, r := range recs {
		report.Recent[i] = fileInfo(r)
	}
	return report, nil
}

// PutFile encrypts data and stores it under name, replacing any earlier file
// with the same name.
func (v *Vault) PutFile(name string, data []byte) (file *File, err error) {
	clean := SanitizeFilename(name)
	defer func() { v.record(ActionUpload, clean, TargetFiles, err) }()
	if clean == "" {
		return nil, fmt.Errorf("%w: filename %q", ErrInvalidName, name)
	}

	key, err := v.subkey(crypto.PurposeFiles)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(key)

	sealed, err := crypto.Seal(key, data, []byte(clean))
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	location := filepath.ToSlash(filepath.Join(blobDir, uuid.NewString()+".bin"))
	if err := os.MkdirAll(filepath.Join(v.dir, blobDir), 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(v.dir, location), sealed, 0600); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}

	previous, _ := v.db.GetFile(clean)
	rec := store.File{
		Filename:   clean,
		SHA256:     crypto.Checksum(data),
		Size:       int64(len(data)),
		Location:   location,
		Mode:       modeSealed,
		UploadedAt: time.Now(),
	}
	if err := v.db.PutFile(rec); err != nil {
		os.Remove(filepath.Join(v.dir, location))
		return nil, err
	}
	if previous != nil && previous.Location != location {
		os.Remove(filepath.Join(v.dir, previous.Location))
	}

	f := fileInfo(rec)
	return &f, nil
}

// Files lists stored file metadata, most recent first.
func (v *Vault) Files() ([]File, error) {
	if _, err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	recs, err := v.db.ListFiles()
	if err != nil {
		return nil, err
	}
	files := make([]File, len(recs))
	for i, r := range recs {
		files[i] = fileInfo(r)
	}
	return files, nil
}

// ReadFile decrypts a stored file and checks its digest.
func (v *Vault) ReadFile(name string) (data []byte, file *File, err error) {
	clean := SanitizeFilename(name)
	defer func() { v.record(ActionDownload, clean, TargetFiles, err) }()
	if clean == "" {
		return nil, nil, fmt.Errorf("%w: filename %q", ErrInvalidName, name)
	}

	key, err := v.subkey(crypto.PurposeFiles)
	if err != nil {
		return nil, nil, err
	}
	defer crypto.Zero(key)

	rec, err := v.db.GetFile(clean)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("file %s: %w", clean, ErrNotFound)
	}

	sealed, err := os.ReadFile(filepath.Join(v.dir, filepath.FromSlash(rec.Location)))
	if err != nil {
		return nil, nil, fmt.Errorf("read blob: %w", err)
	}
	data, err = crypto.Open(key, sealed, []byte(clean))
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt %s: %w", clean, err)
	}
	if crypto.Checksum(data) != rec.SHA256 {
		return nil, nil, fmt.Errorf("file %s: checksum mismatch", clean)
	}

	f := fileInfo(*rec)
	return data, &f, nil
}

// PutSecret encrypts and stores a secret value, replacing any earlier value.
func (v *Vault) PutSecret(category, name, value string) (err error) {
	defer func() { v.record(ActionSecretAdd, category+"/"+name, TargetSecrets, err) }()
	if err := ValidateSecretRef(category, name); err != nil {
		return err
	}

	key, err := v.subkey(crypto.SecretPurpose(category))
	if err != nil {
		return err
	}
	defer crypto.Zero(key)

	sealed, err := crypto.SealString(key, value, secretAAD(category, name))
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	return v.db.PutSecret(store.Secret{Category: category, Name: name, Value: sealed})
}

// Secrets lists secret metadata ordered by category then name.
func (v *Vault) Secrets() ([]Secret, error) {
	if _, err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	recs, err := v.db.ListSecrets("")
	if err != nil {
		return nil, err
	}
	secrets := make([]Secret, len(recs))
	for i, r := range recs {
		secrets[i] = Secret{Category: r.Category, Name: r.Name, UpdatedAt: r.UpdatedAt}
	}
	return secrets, nil
}

// SecretValue decrypts one secret.
func (v *Vault) SecretValue(category, name string) (value string, err error) {
	defer func() { v.record(ActionSecretView, category+"/"+name, TargetSecrets, err) }()

	key, err := v.subkey(crypto.SecretPurpose(category))
	if err != nil {
		return "", err
	}
	defer crypto.Zero(key)

	rec, err := v.db.GetSecret(category, name)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", fmt.Errorf("secret %s/%s: %w", category, name, ErrNotFound)
	}
	return crypto.OpenString(key, rec.Value, secretAAD(category, name))
}

// RotateSecrets re-encrypts every secret, or only those in category when it
// is non-empty, under fresh nonces. Update times are kept. It returns how
// many secrets were rewritten before any error.
func (v *Vault) RotateSecrets(category string) (n int, err error) {
	scope := category
	if scope == "" {
		scope = "*"
	}
	defer func() { v.record(ActionSecretRotate, scope, TargetSecrets, err) }()
	if _, err := v.requireUnlocked(); err != nil {
		return 0, err
	}
	if category != "" {
		if err := ValidateCategory(category); err != nil {
			return 0, err
		}
	}

	recs, err := v.db.ListSecrets(category)
	if err != nil {
		return 0, err
	}
	keys := make(map[string][]byte)
	defer func() {
		for _, k := range keys {
			crypto.Zero(k)
		}
	}()

	for _, meta := range recs {
		key, ok := keys[meta.Category]
		if !ok {
			if key, err = v.subkey(crypto.SecretPurpose(meta.Category)); err != nil {
				return n, err
			}
			keys[meta.Category] = key
		}
		rec, err := v.db.GetSecret(meta.Category, meta.Name)
		if err != nil {
			return n, err
		}
		if rec == nil {
			continue
		}
		aad := secretAAD(rec.Category, rec.Name)
		plain, err := crypto.OpenString(key, rec.Value, aad)
		if err != nil {
			return n, fmt.Errorf("decrypt %s/%s: %w", rec.Category, rec.Name, err)
		}
		if rec.Value, err = crypto.SealString(key, plain, aad); err != nil {
			return n, fmt.Errorf("encrypt %s/%s: %w", rec.Category, rec.Name, err)
		}
		if err := v.db.PutSecret(*rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// DeleteSecret removes a secret.
func (v *Vault) DeleteSecret(category, name string) (err error) {
	defer func() { v.record(ActionSecretDelete, category+"/"+name, TargetSecrets, err) }()
	if _, err := v.requireUnlocked(); err != nil {
		return err
	}
	n, err := v.db.DeleteSecret(category, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("secret %s/%s: %w", category, name, ErrNotFound)
	}
	return nil
}

// AuditLog returns recent audit events, newest first.
func (v *Vault) AuditLog(limit int) ([]AuditEvent, error) {
	entries, err := v.db.GetAuditLog(limit)
	if err != nil {
		return nil, err
	}
	events := make([]AuditEvent, len(entries))
	for i, e := range entries {
		events[i] = AuditEvent{
			ID:        e.ID,
			Action:    e.Action,
			Filename:  e.Filename,
			Target:    e.Target,
			Success:   e.Success,
			Error:     e.Error,
			Timestamp: e.CreatedAt,
		}
	}
	return events, nil
}

// Close locks the vault and closes the database.
func (v *Vault) Close() error {
	v.Lock()
	return v.db.Close()
}

func (v *Vault) record(action, filename, target string, err error) {
	entry := store.AuditEntry{Action: action, Filename: filename, Target: target, Success: err == nil}
	if err != nil {
		entry.Error = err.Error()
	}
	v.db.LogAudit(entry)
}

func (v *Vault) requireUnlocked() ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.session == nil {
		return nil, ErrLocked
	}
	v.session.touch()
	key := v.session.Key()
	if key == nil {
		return nil, ErrLocked
	}
	return key, nil
}

func (v *Vault) subkey(purpose string) ([]byte, error) {
	key, err := v.requireUnlocked()
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(key)

	v.mu.RLock()
	salt := v.salt
	v.mu.RUnlock()
	sub, err := crypto.DeriveSubkey(key, salt, purpose)
	if err != nil {
		return nil, fmt.Errorf("derive subkey: %w", err)
	}
	return sub, nil
}

func secretAAD(category, name string) []byte {
	return []byte(category + "/" + name)
}

func fileInfo(r store.File) File {
	return File{
		Filename:   r.Filename,
		SHA256:     r.SHA256,
		Size:       r.Size,
		Location:   r.Location,
		Mode:       r.Mode,
		UploadedAt: r.UploadedAt,
	}
}
