// Package feedback holds the message slots the console writes status text into.
package feedback

import (
	"sync"
	"time"
)

// DefaultDelay is how long a flashed message stays visible.
const DefaultDelay = 4 * time.Second

// Slot is one feedback area. A flashed message clears itself after the
// slot's delay; a set message stays until replaced.
type Slot struct {
	mu    sync.Mutex
	text  string
	warn  bool
	delay time.Duration
	timer *time.Timer
	gen   uint64
}

// NewSlot creates an empty slot. A non-positive delay uses DefaultDelay.
func NewSlot(delay time.Duration) *Slot {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Slot{delay: delay}
}

// Flash shows msg and schedules it to clear. Any pending clear is canceled
// first, so the text on screen and its clear time always belong to the
// latest message. An empty msg clears the slot immediately.
func (s *Slot) Flash(msg string, warn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.text = msg
	s.warn = warn && msg != ""
	if msg == "" {
		return
	}

	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.expire(gen) })
}

// Set replaces the text without scheduling a clear.
func (s *Slot) Set(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.text = msg
	s.warn = false
}

// Text returns the current message.
func (s *Slot) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Warn reports whether the current message is a warning.
func (s *Slot) Warn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warn
}

// pending reports whether a clear is scheduled.
func (s *Slot) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels a pending clear and leaves the text in place.
func (s *Slot) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Slot) stopLocked() {
	// Bump the generation even if Stop loses the race with a firing timer;
	// expire then sees a stale generation and leaves the newer text alone.
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Slot) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.text = ""
	s.warn = false
	s.timer = nil
}
