package view

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func ptr(f float64) *float64 { return &f }

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{10 * 1024, "10 KB"},
		{1048576, "1 MB"},
		{5.3 * 1048576, "5.3 MB"},
		{1073741824, "1 GB"},
		{2048 * 1073741824, "2048 GB"},
		{math.NaN(), Placeholder},
		{math.Inf(1), Placeholder},
		{-1, Placeholder},
	}
	for _, c := range cases {
		if got := FormatBytes(c.in); got != c.want {
			t.Errorf("FormatBytes(%v) = %q, want %q", c.in, got, c.want)
		}
	}
	if FormatSize(nil) != Placeholder {
		t.Error("absent size should render the placeholder")
	}
}

func TestFormatTime(t *testing.T) {
	if FormatTime("") != Placeholder {
		t.Fatal("empty timestamp should render the placeholder")
	}
	if got := FormatTime("yesterday-ish"); got != "yesterday-ish" {
		t.Fatalf("unparsable timestamp should be echoed, got %q", got)
	}
	ts := "2024-03-05T10:20:30Z"
	want := time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC).Local().Format(TimeLayout)
	if got := FormatTime(ts); got != want {
		t.Fatalf("FormatTime(%q) = %q, want %q", ts, got, want)
	}
}

func TestEscape(t *testing.T) {
	if got := Escape(`<a href="x">&'</a>`); got != `&lt;a href=&quot;x&quot;&gt;&amp;'&lt;/a&gt;` {
		t.Fatalf("unexpected escape: %q", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
		tag  string
	}{
		{"files", RenderFiles(nil), EmptyFiles, "<tr>"},
		{"secrets", RenderSecrets(nil), EmptySecrets, "<p"},
		{"audit", RenderAudit(nil), EmptyAudit, "<li>"},
	}
	for _, c := range cases {
		if strings.Count(c.html, c.want) != 1 {
			t.Errorf("%s: expected one placeholder, got %q", c.name, c.html)
		}
		if strings.Count(c.html, c.tag) != 1 {
			t.Errorf("%s: expected exactly one element, got %q", c.name, c.html)
		}
	}
}

func TestRenderFiles_EscapesFilename(t *testing.T) {
	html := RenderFiles([]File{{Filename: "<img src=x>", Size: ptr(1536)}})
	if strings.Contains(html, "<img") {
		t.Fatalf("filename rendered as markup: %s", html)
	}
	if !strings.Contains(html, "<td>&lt;img src=x&gt;</td>") {
		t.Fatalf("expected escaped filename cell: %s", html)
	}
	if !strings.Contains(html, `data-download="%3Cimg+src%3Dx%3E"`) {
		t.Fatalf("expected url-encoded download tag: %s", html)
	}
	if !strings.Contains(html, `title="1,536 bytes">1.5 KB`) {
		t.Fatalf("expected formatted size: %s", html)
	}
}

func TestRenderFiles_OneRowPerFile(t *testing.T) {
	html := RenderFiles([]File{
		{Filename: "a.txt", Size: ptr(0), Location: "/data", Mode: "local"},
		{Filename: "b.txt"},
	})
	if strings.Count(html, "<tr>") != 2 {
		t.Fatalf("expected two rows: %s", html)
	}
	if strings.Contains(html, EmptyFiles) {
		t.Fatal("placeholder must not appear with data")
	}
	if !strings.Contains(html, "<td>0 B</td>") || !strings.Contains(html, "<td>"+Placeholder+"</td>") {
		t.Fatalf("expected 0 B and placeholder size: %s", html)
	}
}

func TestGroupSecrets_OrderPreserving(t *testing.T) {
	groups := GroupSecrets([]Secret{
		{Category: "web", Name: "a"},
		{Category: "db", Name: "b"},
		{Category: "web", Name: "c"},
		{Category: "", Name: "d"},
		{Category: "db", Name: "e"},
	})
	var order []string
	for _, g := range groups {
		order = append(order, g.Category)
	}
	if strings.Join(order, ",") != "web,db," {
		t.Fatalf("unexpected group order: %q", order)
	}
	if len(groups[0].Items) != 2 || groups[0].Items[1].Name != "c" {
		t.Fatalf("unexpected web group: %+v", groups[0])
	}
	if len(groups[1].Items) != 2 || groups[1].Items[1].Name != "e" {
		t.Fatalf("unexpected db group: %+v", groups[1])
	}
}

func TestRenderSecrets_ContiguousGroups(t *testing.T) {
	html := RenderSecrets([]Secret{
		{Category: "web", Name: "a"},
		{Category: "db", Name: "pw", UpdatedAt: "2024-01-01T00:00:00Z"},
		{Category: "web", Name: "c"},
		{Name: "loose"},
	})
	if strings.Count(html, `class="secret-group"`) != 3 {
		t.Fatalf("expected three groups: %s", html)
	}
	web := strings.Index(html, "<h3>web</h3>")
	db := strings.Index(html, "<h3>db</h3>")
	unc := strings.Index(html, "<h3>"+Uncategorized+"</h3>")
	if web < 0 || db < 0 || unc < 0 || !(web < db && db < unc) {
		t.Fatalf("groups out of order: %s", html)
	}
	// Both web items sit before the db heading.
	if c := strings.Index(html, `data-name="c"`); c > db {
		t.Fatalf("web group is not contiguous: %s", html)
	}
	if !strings.Contains(html, `<button class="delete" data-category="db" data-name="pw">`) {
		t.Fatalf("expected tagged delete control: %s", html)
	}
	if !strings.Contains(html, "Updated ") {
		t.Fatalf("expected updated timestamp: %s", html)
	}
}

func TestRenderSecrets_Escapes(t *testing.T) {
	html := RenderSecrets([]Secret{{Category: `"><script>`, Name: "a&b"}})
	if strings.Contains(html, "<script>") {
		t.Fatalf("category rendered as markup: %s", html)
	}
	if !strings.Contains(html, `data-name="a&amp;b"`) {
		t.Fatalf("expected escaped name attribute: %s", html)
	}
}

func TestRenderAudit(t *testing.T) {
	html := RenderAudit([]AuditEvent{
		{Action: "upload", Filename: "a.txt", Target: "/data", Timestamp: "2024-01-01T00:00:00Z", Success: true},
		{Action: "secret:add", Target: "secrets", Success: false, Error: "<boom>"},
	})
	if strings.Count(html, "<li") != 2 {
		t.Fatalf("expected two entries: %s", html)
	}
	if !strings.Contains(html, `<li class="success"><strong>upload</strong> • a.txt → /data`) {
		t.Fatalf("unexpected success entry: %s", html)
	}
	if !strings.Contains(html, `<li class="error">`) || !strings.Contains(html, " — &lt;boom&gt;") {
		t.Fatalf("unexpected error entry: %s", html)
	}
	if strings.Count(html, " — ") != 1 {
		t.Fatalf("error suffix must only appear when present: %s", html)
	}
}

func TestPage_ReplaceAndHTML(t *testing.T) {
	p := NewPage(time.Hour)
	defer p.Close()

	p.Replace(RegionFiles, RenderFiles(nil))
	p.Replace(RegionFiles, RenderFiles([]File{{Filename: "x"}}))
	if p.Renders(RegionFiles) != 2 {
		t.Fatalf("expected 2 renders, got %d", p.Renders(RegionFiles))
	}
	if strings.Contains(p.Region(RegionFiles), EmptyFiles) {
		t.Fatal("replace must discard the previous content")
	}

	p.ShowLogin(true)
	p.Status.Flash("hello <you>", false)
	var b strings.Builder
	if err := p.WriteHTML(&b); err != nil {
		t.Fatal(err)
	}
	doc := b.String()
	if strings.Contains(doc, `id="login-panel" hidden`) {
		t.Fatal("login panel should be visible")
	}
	if !strings.Contains(doc, "hello &lt;you&gt;") {
		t.Fatalf("expected escaped status: %s", doc)
	}
}

func TestDecode_LooseFieldTypes(t *testing.T) {
	var files []File
	err := json.Unmarshal([]byte(`[
		{"filename":"a.txt","size":"unknown","uploaded_at":1700000000000},
		{"filename":"b.txt","size":null,"mode":false},
		{"filename":"c.txt","size":2048,"location":"/data"}
	]`), &files)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	if files[0].Size != nil || files[0].UploadedAt != "1700000000000" {
		t.Fatalf("file 0 = %+v", files[0])
	}
	if files[1].Size != nil || files[1].Mode != "false" {
		t.Fatalf("file 1 = %+v", files[1])
	}
	if files[2].Size == nil || *files[2].Size != 2048 || files[2].Location != "/data" {
		t.Fatalf("file 2 = %+v", files[2])
	}

	var events []AuditEvent
	err = json.Unmarshal([]byte(`[{"action":"login","success":1},{"action":"upload","success":"","error":{"code":5}}]`), &events)
	if err != nil {
		t.Fatal(err)
	}
	if !events[0].Success || events[1].Success {
		t.Fatalf("success flags = %v, %v", events[0].Success, events[1].Success)
	}
	if events[1].Error != `{"code":5}` {
		t.Fatalf("error = %q", events[1].Error)
	}

	var secrets []Secret
	if err := json.Unmarshal([]byte(`[{"category":"db","name":7,"updatedAt":1700000000000}]`), &secrets); err != nil {
		t.Fatal(err)
	}
	if secrets[0].Name != "7" || FormatTime(secrets[0].UpdatedAt) != "1700000000000" {
		t.Fatalf("secret = %+v", secrets[0])
	}
}

func TestDecode_Report(t *testing.T) {
	var r Report
	body := `{"file_count":2,"total_size":"lots","secret_count":3,"recent":[{"filename":"a.txt","size":4}]}`
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatal(err)
	}
	if r.FileCount != 2 || r.SecretCount != 3 || r.TotalSize != nil {
		t.Fatalf("report = %+v", r)
	}
	if len(r.Recent) != 1 || r.Recent[0].Filename != "a.txt" {
		t.Fatalf("recent = %+v", r.Recent)
	}

	if err := json.Unmarshal([]byte(`{"file_count":-1,"recent":"none"}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.FileCount != 0 || r.Recent != nil {
		t.Fatalf("report = %+v", r)
	}
}
