package console

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

type fakeSecret struct {
	Category string
	Name     string
	Value    string
}

// fakeVault is an in-memory stand-in for the vault API.
type fakeVault struct {
	mu       sync.Mutex
	password string
	loggedIn bool
	files    []map[string]any
	secrets  []fakeSecret
	audit    []map[string]any
	// capitalized makes /api/secrets use Go-style field names.
	capitalized bool
	// secretStamp, when set, replaces every secret's updatedAt.
	secretStamp any
	// observe, when set, sees each request before it is answered.
	observe func(r *http.Request)
	// failPaths answers these paths with a non-JSON 500.
	failPaths map[string]bool
	requests  []string
	uploads   map[string]string
}

func newFakeVault(password string) *fakeVault {
	return &fakeVault{
		password:  password,
		failPaths: map[string]bool{},
		uploads:   map[string]string{},
	}
}

func (f *fakeVault) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.requests {
		if p == path {
			n++
		}
	}
	return n
}

func (f *fakeVault) handler(t *testing.T) http.Handler {
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		if f.observe != nil {
			f.observe(r)
		}

		if f.failPaths[r.URL.Path] {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
			return
		}

		if r.URL.Path == "/api/login" {
			var req struct {
				Password string `json:"password"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.Password != f.password {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "bad password"})
				return
			}
			f.loggedIn = true
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}

		if !f.loggedIn {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session required"})
			return
		}

		q := r.URL.Query()
		switch {
		case r.URL.Path == "/api/files":
			writeJSON(w, http.StatusOK, append([]map[string]any{}, f.files...))
		case r.URL.Path == "/api/audit":
			if q.Get("limit") == "" {
				t.Errorf("audit fetched without a limit")
			}
			writeJSON(w, http.StatusOK, append([]map[string]any{}, f.audit...))
		case r.URL.Path == "/api/secrets" && r.Method == http.MethodGet:
			var stamp any = "2024-01-01T00:00:00Z"
			if f.secretStamp != nil {
				stamp = f.secretStamp
			}
			out := make([]map[string]any, 0, len(f.secrets))
			for _, s := range f.secrets {
				if f.capitalized {
					out = append(out, map[string]any{"Category": s.Category, "Name": s.Name, "UpdatedAt": stamp})
				} else {
					out = append(out, map[string]any{"category": s.Category, "name": s.Name, "updatedAt": stamp})
				}
			}
			writeJSON(w, http.StatusOK, out)
		case r.URL.Path == "/api/secrets" && r.Method == http.MethodPost:
			var req fakeSecret
			json.NewDecoder(r.Body).Decode(&req)
			if req.Name == "dup" {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "secret exists"})
				return
			}
			f.secrets = append(f.secrets, req)
			writeJSON(w, http.StatusCreated, map[string]string{"message": "secret stored"})
		case r.URL.Path == "/api/secrets" && r.Method == http.MethodDelete:
			cat, name := q.Get("category"), q.Get("name")
			kept := f.secrets[:0]
			for _, s := range f.secrets {
				if s.Category != cat || s.Name != name {
					kept = append(kept, s)
				}
			}
			f.secrets = kept
			writeJSON(w, http.StatusOK, map[string]string{"message": "secret deleted"})
		case r.URL.Path == "/api/secrets/value":
			for _, s := range f.secrets {
				if s.Category == q.Get("category") && s.Name == q.Get("name") {
					writeJSON(w, http.StatusOK, map[string]string{"value": s.Value})
					return
				}
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "secret not found"})
		case r.URL.Path == "/api/report":
			recent, _ := strconv.Atoi(q.Get("recent"))
			total := 0
			for _, file := range f.files {
				if n, ok := file["size"].(int); ok {
					total += n
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"file_count":   len(f.files),
				"total_size":   total,
				"secret_count": len(f.secrets),
				"recent":       append([]map[string]any{}, f.files[:min(recent, len(f.files))]...),
			})
		case r.URL.Path == "/api/secrets/rotate":
			cat := q.Get("category")
			if cat == "bad" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid name"})
				return
			}
			n := 0
			for _, s := range f.secrets {
				if cat == "" || s.Category == cat {
					n++
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{"message": "secrets rotated", "rotated": n})
		case r.URL.Path == "/api/upload":
			file, header, err := r.FormFile("file")
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file field required"})
				return
			}
			data, _ := io.ReadAll(file)
			file.Close()
			f.uploads[header.Filename] = string(data)
			f.files = append(f.files, map[string]any{
				"filename": header.Filename, "size": len(data), "location": "mem", "mode": "local",
			})
			writeJSON(w, http.StatusCreated, map[string]string{"message": "upload complete"})
		default:
			http.NotFound(w, r)
		}
	})
}

type recordingClipboard struct {
	mu     sync.Mutex
	copied []string
	err    error
}

func (c *recordingClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.copied = append(c.copied, text)
	return c.err
}

type scriptedConfirmer struct {
	answer    bool
	questions []string
}

func (c *scriptedConfirmer) Confirm(q string) bool {
	c.questions = append(c.questions, q)
	return c.answer
}

type recordingRevealer struct {
	messages []string
}

func (r *recordingRevealer) Reveal(msg string) {
	r.messages = append(r.messages, msg)
}

type testEnv struct {
	ctrl      *Controller
	vault     *fakeVault
	server    *httptest.Server
	clipboard *recordingClipboard
	confirmer *scriptedConfirmer
	revealer  *recordingRevealer
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	fv := newFakeVault("hunter2")
	srv := httptest.NewServer(fv.handler(t))
	t.Cleanup(srv.Close)

	env := &testEnv{
		vault:     fv,
		server:    srv,
		clipboard: &recordingClipboard{},
		confirmer: &scriptedConfirmer{answer: true},
		revealer:  &recordingRevealer{},
	}
	env.ctrl = New(Options{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Clipboard:  env.clipboard,
		Confirmer:  env.confirmer,
		Revealer:   env.revealer,
	})
	t.Cleanup(env.ctrl.Close)
	return env
}

// login puts the fake server into the logged-in state without going through
// the controller.
func (e *testEnv) login() {
	e.vault.mu.Lock()
	e.vault.loggedIn = true
	e.vault.mu.Unlock()
}

// with mutates the fake server under its lock.
func (e *testEnv) with(fn func(v *fakeVault)) {
	e.vault.mu.Lock()
	defer e.vault.mu.Unlock()
	fn(e.vault)
}
