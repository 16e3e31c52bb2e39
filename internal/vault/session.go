package vault

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/lovincyrus/vault-console/internal/crypto"
)

// DefaultSessionTTL is how long a browser session stays valid without use.
const DefaultSessionTTL = 15 * time.Minute

// Session holds the in-memory master key and the cookie tokens issued
// against it. Each token slides forward on use; the key itself is wiped when
// no token has been used for a full TTL.
type Session struct {
	mu     sync.Mutex
	key    []byte
	tokens map[string]time.Time // token -> expiry
	ttl    time.Duration
	timer  *time.Timer
	lockFn func()
}

// NewSession creates a session holding a copy of key. lockFn runs after an
// idle auto-lock.
func NewSession(key []byte, ttl time.Duration, lockFn func()) *Session {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &Session{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
		lockFn: lockFn,
	}
	// Copy key so caller can't mutate it
	s.key = make([]byte, len(key))
	copy(s.key, key)
	lockMemory(s.key)
	disableCoreDumps()

	s.timer = time.AfterFunc(s.ttl, s.autoLock)
	return s
}

// Issue creates a new token and returns it with its expiry.
func (s *Session) Issue() (string, time.Time, error) {
	token, err := crypto.GenerateToken()
	if err != nil {
		return "", time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return "", time.Time{}, ErrLocked
	}
	expires := time.Now().Add(s.ttl)
	s.tokens[token] = expires
	s.resetLocked()
	return token, expires, nil
}

// Validate checks a token using constant-time comparison. A valid token has
// its expiry pushed forward and resets the idle timer.
func (s *Session) Validate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil || token == "" {
		return false
	}

	now := time.Now()
	var match string
	for t, expires := range s.tokens {
		if now.After(expires) {
			delete(s.tokens, t)
			continue
		}
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			match = t
		}
	}
	if match == "" {
		return false
	}
	s.tokens[match] = now.Add(s.ttl)
	s.resetLocked()
	return true
}

// Revoke invalidates a single token.
func (s *Session) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// Key returns a copy of the master key. Returns nil if the session is
// destroyed.
func (s *Session) Key() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return nil
	}
	cp := make([]byte, len(s.key))
	copy(cp, s.key)
	return cp
}

// touch restarts the idle countdown without issuing or validating a token.
func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Destroy zeroes the key and invalidates every token.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) resetLocked() {
	if s.timer != nil {
		s.timer.Reset(s.ttl)
	}
}

func (s *Session) autoLock() {
	s.mu.Lock()
	s.wipeLocked()
	s.timer = nil
	lockFn := s.lockFn
	s.mu.Unlock()

	if lockFn != nil {
		lockFn()
	}
}

func (s *Session) wipeLocked() {
	unlockMemory(s.key)
	crypto.Zero(s.key)
	s.key = nil
	clear(s.tokens)
}
