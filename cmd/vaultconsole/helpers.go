package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/lovincyrus/vault-console/internal/config"
	"github.com/lovincyrus/vault-console/internal/console"
	"github.com/lovincyrus/vault-console/internal/server"
)

const requestTimeout = 2 * time.Minute

func dataDir() string {
	if d := os.Getenv("VAULT_DIR"); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vaultconsole")
}

func configPath() string {
	return filepath.Join(dataDir(), config.FileName)
}

func sessionPath() string {
	return filepath.Join(cfg.DataDir, ".session")
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// sessionJar is a cookie jar whose session cookie outlives the process. The
// token is kept in <data dir>/.session.
type sessionJar struct {
	*cookiejar.Jar
	path string
	u    *url.URL
}

func openSessionJar(path, serverAddr string) (*sessionJar, error) {
	u, err := url.Parse(serverAddr)
	if err != nil {
		return nil, fmt.Errorf("parsing server address: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &sessionJar{Jar: jar, path: path, u: u}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if token := strings.TrimSpace(string(data)); token != "" {
		jar.SetCookies(u, []*http.Cookie{{Name: server.SessionCookie, Value: token, Path: "/"}})
	}
	return j, nil
}

// Token returns the current session token, or "" when there is none.
func (j *sessionJar) Token() string {
	for _, c := range j.Cookies(j.u) {
		if c.Name == server.SessionCookie {
			return c.Value
		}
	}
	return ""
}

// Forget drops the session cookie.
func (j *sessionJar) Forget() {
	j.SetCookies(j.u, []*http.Cookie{{Name: server.SessionCookie, Path: "/", MaxAge: -1}})
}

// Save writes the token back, or removes the file once the session is gone.
func (j *sessionJar) Save() error {
	token := j.Token()
	if token == "" {
		if err := os.Remove(j.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(j.path, []byte(token+"\n"), 0600)
}

// session bundles one console invocation with its persisted cookie jar.
type session struct {
	ctl   *console.Controller
	jar   *sessionJar
	saver *fileSaver
}

type sessionOptions struct {
	downloadDir string
	assumeYes   bool
}

func openSession(opts sessionOptions) (*session, error) {
	jar, err := openSessionJar(sessionPath(), cfg.ServerAddr)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Jar: jar, Timeout: requestTimeout}
	if opts.downloadDir == "" {
		opts.downloadDir = cfg.DownloadDir
	}
	saver := &fileSaver{client: client, dir: opts.downloadDir}
	ctl := console.New(console.Options{
		BaseURL:       cfg.ServerAddr,
		HTTPClient:    client,
		Logger:        logger,
		AuditLimit:    cfg.AuditLimit,
		FeedbackDelay: cfg.FeedbackDelay,
		Clipboard:     terminalClipboard{out: os.Stderr},
		Confirmer:     promptConfirmer{assumeYes: opts.assumeYes},
		Revealer:      writerRevealer{out: os.Stdout},
		Navigator:     saver,
	})
	return &session{ctl: ctl, jar: jar, saver: saver}, nil
}

// finish prints the feedback the command produced and persists the session.
// A locked console forgets its cookie.
func (s *session) finish() error {
	defer s.ctl.Close()
	report(os.Stderr, s.ctl)
	if s.ctl.State().RequiresPassword() {
		s.jar.Forget()
	}
	if err := s.jar.Save(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, requestTimeout)
}
