package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/lovincyrus/vault-console/internal/console"
	"github.com/lovincyrus/vault-console/internal/feedback"
	"github.com/lovincyrus/vault-console/internal/view"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")).Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff"))
)

// report prints every feedback slot that currently holds a message, then a
// hint when the console is locked.
func report(w io.Writer, ctl *console.Controller) {
	page := ctl.Page()
	printSlot(w, "status", page.Status)
	printSlot(w, "login", page.LoginFeedback)
	printSlot(w, "upload", page.UploadFeedback)
	printSlot(w, "secret", page.SecretFeedback)

	if ctl.State().RequiresPassword() {
		fmt.Fprintln(w, hintStyle.Render("Run 'vaultconsole login' to start a new session."))
	}
}

func printSlot(w io.Writer, label string, s *feedback.Slot) {
	text := s.Text()
	if text == "" {
		return
	}
	style := okStyle
	if s.Warn() {
		style = warnStyle
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-7s", label)), style.Render(text))
}

func writeReport(w io.Writer, r *view.Report) {
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Files Stored:"), r.FileCount)
	size := view.FormatSize(r.TotalSize)
	if r.TotalSize != nil {
		size += fmt.Sprintf(" (%s bytes)", humanize.Comma(int64(*r.TotalSize)))
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Total Size:"), size)
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Secrets:"), r.SecretCount)
	if len(r.Recent) == 0 {
		return
	}
	fmt.Fprintln(w, labelStyle.Render("Recent Uploads:"))
	for _, f := range r.Recent {
		fmt.Fprintf(w, "  - %s (%s)\n", f.Filename, view.FormatTime(f.UploadedAt))
	}
}
