package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/lovincyrus/vault-console/internal/vault"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, constraint, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "constraint": constraint})
}

// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.loginLimit.allow() {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts, try again later")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "password required")
		return
	}

	token, expires, err := s.vault.Login(req.Password)
	if err != nil {
		// A wrong password is a 403, not a 401: the client must not treat a
		// typo as losing its session.
		if errors.Is(err, vault.ErrWrongPassword) {
			writeError(w, http.StatusForbidden, "wrong_password", "invalid credentials")
			return
		}
		s.handleVaultError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "expiresAt": expires.UTC()})
}

// POST /api/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.vault.Logout(tokenFromRequest(r))
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// GET /api/files
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.vault.Files()
	if err != nil {
		s.handleVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// POST /api/upload
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "file field required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "reading upload failed")
		return
	}
	if _, err := s.vault.PutFile(header.Filename, data); err != nil {
		s.handleVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "upload complete"})
}

// GET /api/download?name=
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name required")
		return
	}
	data, file, err := s.vault.ReadFile(name)
	if err != nil {
		s.handleVaultError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GET /api/secrets
func (s *Server) handleListSecrets(w http.ResponseWriter, r *http.Request) {
	secrets, err := s.vault.Secrets()
	if err != nil {
		s.handleVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, secrets)
}

// POST /api/secrets
func (s *Server) handleStoreSecret(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
		Name     string `json:"name"`
		Value    string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON")
		return
	}
	if err := s.vault.PutSecret(strings.TrimSpace(req.Category), strings.TrimSpace(req.Name), req.Value); err != nil {
		s.handleVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "secret stored"})
}

// DELETE /api/secrets?category=&name=
func (s *Server) handleDeleteSecret(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, name := q.Get("category"), q.Get("name")
	if category == "" || name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "category and name required")
		return
	}
	if err := s.vault.DeleteSecret(category, name); err != nil {
		s.handleVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "secret deleted"})
}

// GET /api/secrets/value?category=&name=
func (s *Server) handleSecretValue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, name := q.Get("category"), q.Get("name")
	if category == "" || name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "category and name required")
		return
	}
	value, err := s.vault.SecretValue(category, name)
	if err != nil {
		s.handleVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"value": value})
}

// GET /api/audit?limit=
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 1000 {
		limit = 1000
	}

	events, err := s.vault.AuditLog(limit)
	if err != nil {
		s.handleVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GET /api/report?recent=
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	recent := 5
	if v := r.URL.Query().Get("recent"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			recent = n
		}
	}
	if recent > 100 {
		recent = 100
	}

	report, err := s.vault.Report(recent)
	if err != nil {
		s.handleVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// POST /api/secrets/rotate?category=
func (s *Server) handleRotateSecrets(w http.ResponseWriter, r *http.Request) {
	n, err := s.vault.RotateSecrets(r.URL.Query().Get("category"))
	if err != nil {
		s.handleVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "secrets rotated", "rotated": n})
}

func (s *Server) handleVaultError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrLocked):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "vault is locked")
	case errors.Is(err, vault.ErrNotInitialized):
		writeError(w, http.StatusPreconditionFailed, "not_initialized", "vault is not initialized")
	case errors.Is(err, vault.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, vault.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("vault operation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
