// Package session tracks whether the console currently holds a valid
// server session.
package session

import "sync"

// Phase is the derived authentication phase.
type Phase int

const (
	// Unknown is the startup phase, before any resync has completed.
	Unknown Phase = iota
	// Locked means the server rejected the session and a password is needed.
	Locked
	// Unlocked means the last files fetch or login succeeded.
	Unlocked
)

func (p Phase) String() string {
	switch p {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the two flags.
type Snapshot struct {
	Authenticated    bool `json:"authenticated"`
	RequiresPassword bool `json:"requiresPassword"`
}

// State holds the session flags. Only the gateway (on 401) and the
// controller (on login or a successful files fetch) write to it.
type State struct {
	mu               sync.Mutex
	authenticated    bool
	requiresPassword bool
}

// New returns a state in the Unknown phase.
func New() *State {
	return &State{}
}

// Lock records a session loss.
func (s *State) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.requiresPassword = true
}

// Unlock records a confirmed session.
func (s *State) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.requiresPassword = false
}

// Snapshot returns the current flags.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Authenticated: s.authenticated, RequiresPassword: s.requiresPassword}
}

// Authenticated reports the authenticated flag.
func (s *State) Authenticated() bool {
	return s.Snapshot().Authenticated
}

// RequiresPassword reports whether the login surface should be shown.
func (s *State) RequiresPassword() bool {
	return s.Snapshot().RequiresPassword
}

// Phase derives the phase from the flags.
func (s *State) Phase() Phase {
	snap := s.Snapshot()
	switch {
	case snap.RequiresPassword:
		return Locked
	case snap.Authenticated:
		return Unlocked
	default:
		return Unknown
	}
}
