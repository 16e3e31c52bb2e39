package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/lovincyrus/vault-console/internal/gateway"
	"github.com/lovincyrus/vault-console/internal/view"
)

func jsonOptions(method string, body any) (gateway.Options, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return gateway.Options{}, err
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return gateway.Options{Method: method, Header: h, Body: bytes.NewReader(buf)}, nil
}

func secretQuery(category, name string) string {
	return "category=" + url.QueryEscape(category) + "&name=" + url.QueryEscape(name)
}

// Login submits the password field. On success the password is cleared and
// a resync follows. A failed login leaves the session state alone; only a
// 401 locks it.
func (c *Controller) Login(ctx context.Context) bool {
	password := c.page.Password()
	if password == "" {
		return false
	}
	c.page.LoginFeedback.Set(MsgVerifying)

	opts, err := jsonOptions(http.MethodPost, map[string]string{"password": password})
	if err != nil {
		c.page.LoginFeedback.Set(MsgLoginFailed)
		return false
	}
	res := c.gw.Call(ctx, "/api/login", opts)
	if res.Failed() {
		c.page.LoginFeedback.Set(res.ErrText(MsgLoginFailed))
		c.page.Status.Flash(MsgLoginFailed, true)
		return false
	}

	c.state.Unlock()
	c.page.LoginFeedback.Set("")
	c.page.SetPassword("")
	c.page.Status.Flash(MsgUnlocked, false)
	c.LoadAll(ctx)
	return true
}

// Upload sends the selected file as multipart field "file".
func (c *Controller) Upload(ctx context.Context) bool {
	path := c.page.UploadPath()
	if path == "" {
		return false
	}
	c.page.UploadFeedback.Set(MsgUploading)

	f, err := os.Open(path)
	if err != nil {
		c.logger.Error("opening upload", "path", path, "err", err)
		c.page.UploadFeedback.Set(MsgUploadFailed)
		return false
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	h := http.Header{}
	h.Set("Content-Type", mw.FormDataContentType())
	res := c.gw.Call(ctx, "/api/upload", gateway.Options{Method: http.MethodPost, Header: h, Body: pr})
	// Unblocks the writer if the request ended before consuming the body.
	pr.Close()

	if res.Failed() {
		c.page.UploadFeedback.Set(res.ErrText(MsgUploadFailed))
		return false
	}
	c.page.UploadFeedback.Set(MsgUploaded)
	c.page.SetUploadPath("")
	c.LoadAll(ctx)
	return true
}

// CreateSecret stores the secret form.
func (c *Controller) CreateSecret(ctx context.Context) bool {
	form := c.page.SecretForm()
	if strings.TrimSpace(form.Category) == "" || strings.TrimSpace(form.Name) == "" {
		return false
	}
	c.page.SecretFeedback.Set(MsgSaving)

	opts, err := jsonOptions(http.MethodPost, map[string]string{
		"category": form.Category,
		"name":     form.Name,
		"value":    form.Value,
	})
	if err != nil {
		c.page.SecretFeedback.Set(MsgStoreFailed)
		return false
	}
	res := c.gw.Call(ctx, "/api/secrets", opts)
	if res.Failed() {
		c.page.SecretFeedback.Set(res.ErrText(MsgStoreFailed))
		return false
	}

	c.page.SecretFeedback.Set(MsgStored)
	c.page.SetSecretForm(view.SecretForm{})
	c.LoadAll(ctx)
	return true
}

// ViewSecret fetches a secret value, copies it to the clipboard when one is
// available, and reveals it. A clipboard failure never blocks the reveal.
func (c *Controller) ViewSecret(ctx context.Context, category, name string) bool {
	c.page.SecretFeedback.Set(MsgLoading)
	res := c.gw.Call(ctx, "/api/secrets/value?"+secretQuery(category, name), gateway.Options{})
	if res.Failed() {
		c.page.SecretFeedback.Set(res.ErrText(MsgViewFailed))
		return false
	}
	value, ok := res.Field("value")
	if !ok {
		c.page.SecretFeedback.Set(MsgViewFailed)
		return false
	}
	text := fmt.Sprint(value)
	c.page.SecretFeedback.Set("")

	if c.clipboard != nil {
		if err := c.clipboard.Copy(text); err != nil {
			c.logger.Debug("clipboard copy failed", "err", err)
		}
	}
	if c.revealer != nil {
		c.revealer.Reveal(fmt.Sprintf("%s/%s:\n%s", category, name, text))
	}
	return true
}

// DeleteSecret removes a secret after the user confirms. Declining makes no
// request.
func (c *Controller) DeleteSecret(ctx context.Context, category, name string) bool {
	if c.confirmer == nil || !c.confirmer.Confirm(fmt.Sprintf("Delete secret %s/%s?", category, name)) {
		return false
	}
	c.page.SecretFeedback.Set(MsgDeleting)
	res := c.gw.Call(ctx, "/api/secrets?"+secretQuery(category, name), gateway.Options{Method: http.MethodDelete})
	if res.Failed() {
		c.page.SecretFeedback.Set(res.ErrText(MsgDeleteFailed))
		return false
	}
	c.page.SecretFeedback.Set("")
	c.LoadAll(ctx)
	return true
}

// DownloadURL is where the browser goes to fetch a file.
func (c *Controller) DownloadURL(filename string) string {
	return c.gw.URL("/api/download?name=" + url.QueryEscape(filename))
}

// Download navigates to the download URL. It bypasses the gateway: the
// response is file bytes, not JSON.
func (c *Controller) Download(ctx context.Context, filename string) bool {
	if filename == "" || c.navigator == nil {
		return false
	}
	if err := c.navigator.Navigate(ctx, c.DownloadURL(filename)); err != nil {
		c.logger.Error("download failed", "filename", filename, "err", err)
		c.page.Status.Flash(MsgDownloadFailed, true)
		return false
	}
	return true
}
