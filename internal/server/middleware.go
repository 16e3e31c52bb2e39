package server

import (
	"context"
	"net/http"
)

// SessionCookie carries the session token between browser and server.
const SessionCookie = "vault_session"

type contextKey string

const tokenKey contextKey = "token"

// tokenFromRequest returns the validated session token.
func tokenFromRequest(r *http.Request) string {
	t, _ := r.Context().Value(tokenKey).(string)
	return t
}

// securityHeadersMiddleware sets standard security headers on all responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

const (
	maxBodySize   = 1 << 20   // 1 MB
	maxUploadSize = 128 << 20 // 128 MB
)

// bodySizeMiddleware limits request body size to prevent memory exhaustion.
// Uploads get a larger allowance than JSON bodies.
func bodySizeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			limit := int64(maxBodySize)
			if r.URL.Path == "/api/upload" {
				limit = maxUploadSize
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the session cookie. Anything else gets a 401,
// which the console treats as "locked".
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "session required")
			return
		}
		if !s.vault.ValidateToken(c.Value) {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "session expired")
			return
		}
		ctx := context.WithValue(r.Context(), tokenKey, c.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
