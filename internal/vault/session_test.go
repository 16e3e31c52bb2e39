package vault

import (
	"testing"
	"time"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestMemProtect_NoPanic(t *testing.T) {
	// Best-effort calls: they may fail without CAP_IPC_LOCK but must not crash.
	b := make([]byte, 32)
	lockMemory(b)
	unlockMemory(b)
	lockMemory(nil)
	disableCoreDumps()
}

func TestSession_IssueValidate(t *testing.T) {
	s := NewSession(testKey, time.Minute, nil)
	defer s.Destroy()

	token, expires, err := s.Issue()
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(expires) <= 0 {
		t.Fatal("expected expiry in the future")
	}
	if !s.Validate(token) {
		t.Fatal("issued token should validate")
	}
	if s.Validate(token + "x") {
		t.Fatal("altered token should not validate")
	}
}

func TestSession_KeyIsCopied(t *testing.T) {
	key := append([]byte(nil), testKey...)
	s := NewSession(key, time.Minute, nil)
	defer s.Destroy()

	key[0] = 'X'
	got := s.Key()
	if string(got) != string(testKey) {
		t.Fatal("session key should not alias the caller's slice")
	}
	got[1] = 'Y'
	if string(s.Key()) != string(testKey) {
		t.Fatal("Key should return a copy")
	}
}

func TestSession_Revoke(t *testing.T) {
	s := NewSession(testKey, time.Minute, nil)
	defer s.Destroy()

	token, _, _ := s.Issue()
	s.Revoke(token)
	if s.Validate(token) {
		t.Fatal("revoked token should not validate")
	}
	if s.Key() == nil {
		t.Fatal("revoking a token should not wipe the key")
	}
}

func TestSession_Destroy(t *testing.T) {
	s := NewSession(testKey, time.Minute, nil)
	token, _, _ := s.Issue()

	s.Destroy()

	if s.Key() != nil {
		t.Fatal("expected nil key after destroy")
	}
	if s.Validate(token) {
		t.Fatal("expected invalid token after destroy")
	}
	if _, _, err := s.Issue(); err != ErrLocked {
		t.Fatalf("expected ErrLocked issuing on a destroyed session, got %v", err)
	}
}

func TestSession_TokenExpires(t *testing.T) {
	s := NewSession(testKey, time.Minute, nil)
	defer s.Destroy()

	token, _, _ := s.Issue()
	s.mu.Lock()
	s.tokens[token] = time.Now().Add(-time.Second)
	s.mu.Unlock()

	if s.Validate(token) {
		t.Fatal("expired token should not validate")
	}
}

func TestSession_AutoLock(t *testing.T) {
	locked := make(chan struct{})
	s := NewSession(testKey, 20*time.Millisecond, func() { close(locked) })
	token, _, _ := s.Issue()

	select {
	case <-locked:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not auto-lock")
	}

	if s.Key() != nil {
		t.Fatal("expected nil key after auto-lock")
	}
	if s.Validate(token) {
		t.Fatal("expected invalid token after auto-lock")
	}
}

func TestSession_TouchDelaysAutoLock(t *testing.T) {
	locked := make(chan struct{})
	s := NewSession(testKey, 300*time.Millisecond, func() { close(locked) })

	for range 6 {
		time.Sleep(50 * time.Millisecond)
		s.touch()
	}
	select {
	case <-locked:
		t.Fatal("touched session should not auto-lock")
	default:
	}

	select {
	case <-locked:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not auto-lock once touches stopped")
	}
}

func TestVault_AutoLockClearsSession(t *testing.T) {
	v, token := tmpVault(t)

	v.mu.RLock()
	s := v.session
	v.mu.RUnlock()
	s.autoLock()

	if v.ValidateToken(token) {
		t.Fatal("token should be invalid after auto-lock")
	}
	status, _ := v.Status()
	if !status.Locked {
		t.Fatal("vault should report locked after auto-lock")
	}
}
