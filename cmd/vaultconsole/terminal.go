package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// terminalClipboard copies through the OSC 52 escape sequence, which works
// over SSH as long as the terminal emulator honours it.
type terminalClipboard struct {
	out *os.File
}

func (c terminalClipboard) Copy(text string) error {
	if !term.IsTerminal(int(c.out.Fd())) {
		return errors.New("clipboard: output is not a terminal")
	}
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	_, err := seq.WriteTo(c.out)
	return err
}

// promptConfirmer asks y/N on the terminal. Anything but yes declines.
type promptConfirmer struct {
	assumeYes bool
}

func (p promptConfirmer) Confirm(question string) bool {
	if p.assumeYes {
		return true
	}
	prompt := promptui.Prompt{
		Label:     question,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}

// writerRevealer prints the value. The CLI has nothing to wait on.
type writerRevealer struct {
	out io.Writer
}

func (r writerRevealer) Reveal(message string) {
	fmt.Fprintln(r.out, message)
}

// fileSaver follows a download URL with the session's client and stores the
// body in dir under the name the server sent.
type fileSaver struct {
	client *http.Client
	dir    string

	// saved is the path of the last completed download.
	saved string
}

func (f *fileSaver) Navigate(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("download: %s", errResp.Error)
		}
		return fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	name := downloadName(resp.Header.Get("Content-Disposition"), rawURL)
	if name == "" {
		return errors.New("download: server sent no usable filename")
	}
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	dest := filepath.Join(f.dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return err
	}
	f.saved = dest
	return nil
}

// downloadName prefers the Content-Disposition filename and falls back to
// the name query parameter. Only the base name is ever used.
func downloadName(disposition, rawURL string) string {
	var name string
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if u, err := url.Parse(rawURL); err == nil {
			name = u.Query().Get("name")
		}
	}
	name = filepath.Base(filepath.Clean("/" + filepath.ToSlash(name)))
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	return name
}
