package console

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lovincyrus/vault-console/internal/server"
	"github.com/lovincyrus/vault-console/internal/session"
	"github.com/lovincyrus/vault-console/internal/vault"
	"github.com/lovincyrus/vault-console/internal/view"
)

const e2ePassword = "correct horse battery"

// clientNavigator fetches the download URL with the console's client.
type clientNavigator struct {
	client *http.Client
	status int
	body   string
}

func (n *clientNavigator) Navigate(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	n.status, n.body = resp.StatusCode, string(data)
	return err
}

func TestEndToEnd_AgainstVaultServer(t *testing.T) {
	dir := t.TempDir()
	if err := vault.Init(dir, e2ePassword); err != nil {
		t.Fatal(err)
	}
	v, err := vault.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { v.Close() })

	srv := server.New(v, "127.0.0.1:0", slog.New(slog.DiscardHandler))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Jar: jar}
	nav := &clientNavigator{client: client}
	revealer := &recordingRevealer{}
	ctrl := New(Options{
		BaseURL:    ts.URL,
		HTTPClient: client,
		Confirmer:  &scriptedConfirmer{answer: true},
		Revealer:   revealer,
		Navigator:  nav,
	})
	t.Cleanup(ctrl.Close)
	ctx := context.Background()
	page := ctrl.Page()

	// No cookie yet: the first resync locks the console.
	if ctrl.Start(ctx) {
		t.Fatal("expected initial resync to fail without a session")
	}
	if ctrl.State().Phase() != session.Locked || !page.LoginVisible() {
		t.Fatalf("expected locked console, phase %s", ctrl.State().Phase())
	}

	// A wrong password is reported but does not change the session state.
	page.SetPassword("nope")
	if ctrl.Login(ctx) {
		t.Fatal("expected wrong password to fail")
	}
	if page.LoginFeedback.Text() != "invalid credentials" {
		t.Fatalf("login feedback = %q", page.LoginFeedback.Text())
	}
	if ctrl.State().Phase() != session.Locked {
		t.Fatalf("phase after wrong password = %s", ctrl.State().Phase())
	}

	page.SetPassword(e2ePassword)
	if !ctrl.Login(ctx) {
		t.Fatalf("login failed: %q", page.LoginFeedback.Text())
	}
	if ctrl.State().Phase() != session.Unlocked || page.LoginVisible() {
		t.Fatal("expected unlocked console after login")
	}
	if page.Password() != "" {
		t.Fatal("password field should be cleared")
	}
	if !strings.Contains(page.Region(view.RegionFiles), view.EmptyFiles) {
		t.Fatalf("files: %s", page.Region(view.RegionFiles))
	}
	audit := page.Region(view.RegionAudit)
	if !strings.Contains(audit, `<li class="error"><strong>login</strong>`) || !strings.Contains(audit, `<li class="success"><strong>login</strong>`) {
		t.Fatalf("audit should hold the failed and successful logins: %s", audit)
	}

	upload := filepath.Join(t.TempDir(), "notes <1>.txt")
	if err := os.WriteFile(upload, []byte("remember the milk"), 0600); err != nil {
		t.Fatal(err)
	}
	page.SetUploadPath(upload)
	if !ctrl.Upload(ctx) {
		t.Fatalf("upload failed: %q", page.UploadFeedback.Text())
	}
	files := page.Region(view.RegionFiles)
	if !strings.Contains(files, "notes &lt;1&gt;.txt") || !strings.Contains(files, "17 B") {
		t.Fatalf("files after upload: %s", files)
	}

	if !ctrl.Download(ctx, "notes <1>.txt") {
		t.Fatal("download failed")
	}
	if nav.status != http.StatusOK || nav.body != "remember the milk" {
		t.Fatalf("download got %d %q", nav.status, nav.body)
	}

	page.SetSecretForm(view.SecretForm{Category: "api", Name: "github", Value: "s3cret"})
	if !ctrl.CreateSecret(ctx) {
		t.Fatalf("create secret failed: %q", page.SecretFeedback.Text())
	}
	if !strings.Contains(page.Region(view.RegionSecrets), `<h3>api</h3>`) {
		t.Fatalf("secrets: %s", page.Region(view.RegionSecrets))
	}
	if strings.Contains(page.Region(view.RegionSecrets), "s3cret") {
		t.Fatal("secret value must never appear in the listing")
	}

	if !ctrl.ViewSecret(ctx, "api", "github") {
		t.Fatal("view secret failed")
	}
	if len(revealer.messages) != 1 || !strings.Contains(revealer.messages[0], "s3cret") {
		t.Fatalf("revealed %v", revealer.messages)
	}

	report, ok := ctrl.Report(ctx, 5)
	if !ok {
		t.Fatal("report failed")
	}
	if report.FileCount != 1 || report.SecretCount != 1 || report.TotalSize == nil || *report.TotalSize != 17 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Recent) != 1 || report.Recent[0].Filename != "notes <1>.txt" {
		t.Fatalf("recent = %+v", report.Recent)
	}

	if n, ok := ctrl.RotateSecrets(ctx, ""); !ok || n != 1 {
		t.Fatalf("rotate = %d, %v: %q", n, ok, page.SecretFeedback.Text())
	}
	if !ctrl.ViewSecret(ctx, "api", "github") || !strings.Contains(revealer.messages[1], "s3cret") {
		t.Fatalf("secret unreadable after rotation: %v", revealer.messages)
	}

	if !ctrl.DeleteSecret(ctx, "api", "github") {
		t.Fatal("delete secret failed")
	}
	if !strings.Contains(page.Region(view.RegionSecrets), view.EmptySecrets) {
		t.Fatalf("secrets after delete: %s", page.Region(view.RegionSecrets))
	}

	// Locking the vault server-side ends the session; the next refresh
	// brings the login panel back.
	v.Lock()
	if ctrl.Refresh(ctx) {
		t.Fatal("expected refresh to fail after the vault locked")
	}
	if ctrl.State().Phase() != session.Locked || !page.LoginVisible() {
		t.Fatal("expected console to lock after server-side lock")
	}
	if page.LoginFeedback.Text() != MsgSessionNeeded {
		t.Fatalf("login feedback = %q", page.LoginFeedback.Text())
	}
}
