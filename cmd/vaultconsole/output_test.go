package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lovincyrus/vault-console/internal/view"
)

func TestWriteReport(t *testing.T) {
	total := 1536.0
	var buf bytes.Buffer
	writeReport(&buf, &view.Report{
		FileCount:   2,
		TotalSize:   &total,
		SecretCount: 4,
		Recent:      []view.File{{Filename: "a.txt", UploadedAt: "not a time"}},
	})
	out := buf.String()
	for _, want := range []string{"1.5 KB (1,536 bytes)", "- a.txt (not a time)", "Recent Uploads:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWriteReport_NoUploads(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, &view.Report{})
	out := buf.String()
	if strings.Contains(out, "Recent Uploads") {
		t.Fatalf("unexpected recent section:\n%s", out)
	}
	if !strings.Contains(out, view.Placeholder) {
		t.Fatalf("expected placeholder size:\n%s", out)
	}
}
