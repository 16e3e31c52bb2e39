// Package view is the console's page model and the renderers that fill it.
// Every render replaces a whole region; nothing is patched in place.
package view

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/lovincyrus/vault-console/internal/feedback"
)

// Region names a part of the page that is replaced wholesale.
type Region string

const (
	RegionFiles   Region = "files"
	RegionSecrets Region = "secrets"
	RegionAudit   Region = "audit"
)

// Regions in page order.
var Regions = []Region{RegionFiles, RegionSecrets, RegionAudit}

// SecretForm is the create-secret form.
type SecretForm struct {
	Category string
	Name     string
	Value    string
}

// Page holds the rendered regions, the login panel, the form inputs and the
// feedback slots.
type Page struct {
	mu           sync.Mutex
	regions      map[Region]string
	renders      map[Region]int
	loginVisible bool

	password   string
	uploadPath string
	secret     SecretForm

	Status         *feedback.Slot
	LoginFeedback  *feedback.Slot
	UploadFeedback *feedback.Slot
	SecretFeedback *feedback.Slot
}

// NewPage creates an empty page. delay is how long status toasts stay up.
func NewPage(delay time.Duration) *Page {
	return &Page{
		regions:        make(map[Region]string),
		renders:        make(map[Region]int),
		Status:         feedback.NewSlot(delay),
		LoginFeedback:  feedback.NewSlot(delay),
		UploadFeedback: feedback.NewSlot(delay),
		SecretFeedback: feedback.NewSlot(delay),
	}
}

// Replace swaps the whole content of a region.
func (p *Page) Replace(r Region, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regions[r] = html
	p.renders[r]++
}

// Region returns the current content of a region.
func (p *Page) Region(r Region) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regions[r]
}

// Renders returns how many times a region has been replaced.
func (p *Page) Renders(r Region) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renders[r]
}

// ShowLogin sets the login panel visibility.
func (p *Page) ShowLogin(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loginVisible = visible
}

// LoginVisible reports whether the login panel is shown.
func (p *Page) LoginVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loginVisible
}

// SetPassword fills the password input.
func (p *Page) SetPassword(pw string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.password = pw
}

// Password returns the password input.
func (p *Page) Password() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.password
}

// SetUploadPath selects a file for upload.
func (p *Page) SetUploadPath(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploadPath = path
}

// UploadPath returns the selected upload file.
func (p *Page) UploadPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploadPath
}

// SetSecretForm fills the create-secret form.
func (p *Page) SetSecretForm(f SecretForm) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secret = f
}

// SecretForm returns the create-secret form.
func (p *Page) SecretForm() SecretForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.secret
}

// Close stops every pending feedback timer.
func (p *Page) Close() {
	for _, s := range []*feedback.Slot{p.Status, p.LoginFeedback, p.UploadFeedback, p.SecretFeedback} {
		s.Stop()
	}
}

// WriteHTML writes the page as a standalone HTML document.
func (p *Page) WriteHTML(w io.Writer) error {
	p.mu.Lock()
	regions := make(map[Region]string, len(p.regions))
	for k, v := range p.regions {
		regions[k] = v
	}
	hidden := ""
	if !p.loginVisible {
		hidden = " hidden"
	}
	p.mu.Unlock()

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head><meta charset=\"UTF-8\"><title>Vault</title></head>\n<body>\n")
	fmt.Fprintf(&b, "<div id=\"status\">%s</div>\n", Escape(p.Status.Text()))
	fmt.Fprintf(&b, "<section id=\"login-panel\"%s><p id=\"login-feedback\">%s</p></section>\n", hidden, Escape(p.LoginFeedback.Text()))
	fmt.Fprintf(&b, "<table id=\"files-table\"><tbody>\n%s</tbody></table>\n", regions[RegionFiles])
	fmt.Fprintf(&b, "<div id=\"secrets-list\">\n%s</div>\n", regions[RegionSecrets])
	fmt.Fprintf(&b, "<ul id=\"audit-list\">\n%s</ul>\n", regions[RegionAudit])
	b.WriteString("</body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}
