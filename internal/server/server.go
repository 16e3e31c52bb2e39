// Package server is the reference HTTP/JSON vault API the console talks to.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/lovincyrus/vault-console/internal/vault"
)

// rateLimiter is a sliding window over login attempts. It is global rather
// than per client because the server binds to loopback.
type rateLimiter struct {
	mu       sync.Mutex
	attempts []time.Time
	max      int
	window   time.Duration
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	return &rateLimiter{max: max, window: window}
}

// allow records an attempt and reports whether it fits in the window.
func (rl *rateLimiter) allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	valid := rl.attempts[:0]
	for _, t := range rl.attempts {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	rl.attempts = valid

	if len(rl.attempts) >= rl.max {
		return false
	}
	rl.attempts = append(rl.attempts, now)
	return true
}

// Server is the HTTP API server for the vault.
type Server struct {
	vault      *vault.Vault
	logger     *slog.Logger
	mux        *http.ServeMux
	handler    http.Handler // full chain: securityHeaders → bodySize → mux
	server     *http.Server
	loginLimit *rateLimiter
}

// New creates a new API server. A nil logger discards.
func New(v *vault.Vault, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		vault:      v,
		logger:     logger,
		loginLimit: newRateLimiter(5, time.Minute),
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.handler = securityHeadersMiddleware(bodySizeMiddleware(s.mux))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	// Public endpoints (no session required)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/login", s.handleLogin)

	// Protected endpoints
	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/logout", s.handleLogout)
	protected.HandleFunc("GET /api/files", s.handleListFiles)
	protected.HandleFunc("POST /api/upload", s.handleUpload)
	protected.HandleFunc("GET /api/download", s.handleDownload)
	protected.HandleFunc("GET /api/secrets", s.handleListSecrets)
	protected.HandleFunc("POST /api/secrets", s.handleStoreSecret)
	protected.HandleFunc("DELETE /api/secrets", s.handleDeleteSecret)
	protected.HandleFunc("GET /api/secrets/value", s.handleSecretValue)
	protected.HandleFunc("GET /api/audit", s.handleAuditLog)
	protected.HandleFunc("GET /api/report", s.handleReport)
	protected.HandleFunc("POST /api/secrets/rotate", s.handleRotateSecrets)

	s.mux.Handle("/api/", s.authMiddleware(protected))
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listen address and serves in the background. With port 0
// the returned listener carries the port that was picked.
func (s *Server) Start() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, err
	}
	go s.server.Serve(ln)
	return ln, nil
}

// Stop drains in-flight requests. Session cookies stay valid in the vault
// until it is locked or closed.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
