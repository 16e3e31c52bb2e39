package view

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
)

// Placeholder rows for empty collections.
const (
	EmptyFiles   = "No files recorded yet."
	EmptySecrets = "No secrets stored yet."
	EmptyAudit   = "No audit events yet."
	// Uncategorized titles the group of secrets with no category.
	Uncategorized = "uncategorized"
)

// RenderFiles renders the files table body.
func RenderFiles(files []File) string {
	var b strings.Builder
	if len(files) == 0 {
		fmt.Fprintf(&b, `<tr><td colspan="6">%s</td></tr>`, EmptyFiles)
		return b.String()
	}
	for _, f := range files {
		b.WriteString("<tr>")
		fmt.Fprintf(&b, "<td>%s</td>", Escape(f.Filename))
		fmt.Fprintf(&b, "<td%s>%s</td>", sizeTitle(f.Size), FormatSize(f.Size))
		fmt.Fprintf(&b, "<td>%s</td>", Escape(f.Location))
		fmt.Fprintf(&b, "<td>%s</td>", Escape(f.Mode))
		fmt.Fprintf(&b, "<td>%s</td>", Escape(FormatTime(f.UploadedAt)))
		fmt.Fprintf(&b, `<td><button data-download="%s">Download</button></td>`, Escape(url.QueryEscape(f.Filename)))
		b.WriteString("</tr>\n")
	}
	return b.String()
}

func sizeTitle(n *float64) string {
	if n == nil || math.IsNaN(*n) || math.IsInf(*n, 0) || *n < 0 || *n > math.MaxInt64 {
		return ""
	}
	return fmt.Sprintf(` title="%s bytes"`, humanize.Comma(int64(*n)))
}

// RenderSecrets renders the grouped secrets list.
func RenderSecrets(items []Secret) string {
	var b strings.Builder
	if len(items) == 0 {
		fmt.Fprintf(&b, `<p class="muted">%s</p>`, EmptySecrets)
		return b.String()
	}
	for _, g := range GroupSecrets(items) {
		title := g.Category
		if title == "" {
			title = Uncategorized
		}
		b.WriteString(`<div class="secret-group">`)
		fmt.Fprintf(&b, "<h3>%s</h3>", Escape(title))
		for _, s := range g.Items {
			cat, name := Escape(s.Category), Escape(s.Name)
			b.WriteString(`<div class="secret-item">`)
			fmt.Fprintf(&b, `<span class="name">%s</span>`, name)
			stamp := ""
			if s.UpdatedAt != "" {
				stamp = "Updated " + Escape(FormatTime(s.UpdatedAt))
			}
			fmt.Fprintf(&b, `<span class="timestamp">%s</span>`, stamp)
			fmt.Fprintf(&b, `<button class="view" data-category="%s" data-name="%s">View</button>`, cat, name)
			fmt.Fprintf(&b, `<button class="delete" data-category="%s" data-name="%s">Delete</button>`, cat, name)
			b.WriteString("</div>")
		}
		b.WriteString("</div>\n")
	}
	return b.String()
}

// RenderAudit renders the audit list.
func RenderAudit(events []AuditEvent) string {
	var b strings.Builder
	if len(events) == 0 {
		fmt.Fprintf(&b, "<li>%s</li>", EmptyAudit)
		return b.String()
	}
	for _, e := range events {
		class := "error"
		if e.Success {
			class = "success"
		}
		fmt.Fprintf(&b, `<li class="%s">`, class)
		fmt.Fprintf(&b, "<strong>%s</strong> • %s → %s<br>", Escape(e.Action), Escape(e.Filename), Escape(e.Target))
		fmt.Fprintf(&b, "<small>%s", Escape(FormatTime(e.Timestamp)))
		if e.Error != "" {
			fmt.Fprintf(&b, " — %s", Escape(e.Error))
		}
		b.WriteString("</small></li>\n")
	}
	return b.String()
}
