package printdoc

import (
	"context"
	"encoding/base64"
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joelrodriguezguzman/markdown/internal/diagram"
)

func TestCaptureSelect(t *testing.T) {
	tests := []struct {
		name     string
		capture  Capture
		want     string
		wantHTML bool
	}{
		{"preview wins", Capture{Preview: "<p>p</p>", SideBySide: "<p>s</p>", Raw: "r"}, "<p>p</p>", true},
		{"side by side next", Capture{Preview: "  \n", SideBySide: "<p>s</p>", Raw: "r"}, "<p>s</p>", true},
		{"raw fallback", Capture{Raw: "# raw"}, "# raw", false},
		{"blank panes fall back", Capture{Preview: " ", SideBySide: "\t", Raw: "x"}, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, isHTML := tt.capture.Select()
			if got != tt.want || isHTML != tt.wantHTML {
				t.Errorf("Select() = (%q, %v), want (%q, %v)", got, isHTML, tt.want, tt.wantHTML)
			}
			if tt.capture.PreviewActive() != tt.wantHTML {
				t.Errorf("PreviewActive() = %v, want %v", tt.capture.PreviewActive(), tt.wantHTML)
			}
		})
	}
}

func TestMaterializeReplacesSVG(t *testing.T) {
	in := `<p>intro</p><div class="mermaid" data-processed="true"><svg viewBox="0 0 10 10"><rect width="5" height="5"></rect></svg></div><svg id="icon"></svg>`

	out, n, err := Materialize(in)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 diagram replaced, got %d", n)
	}
	if strings.Contains(out, "<rect") {
		t.Errorf("diagram svg should be replaced, got:\n%s", out)
	}
	if !strings.Contains(out, `<svg id="icon">`) {
		t.Errorf("svg outside a diagram container should be kept, got:\n%s", out)
	}

	m := regexp.MustCompile(`src="data:image/svg\+xml;base64,([^"]+)"`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no data URI in output:\n%s", out)
	}
	decoded, err := base64.StdEncoding.DecodeString(m[1])
	if err != nil {
		t.Fatalf("decoding data URI: %v", err)
	}
	svg := string(decoded)
	if !strings.Contains(svg, `xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("standalone svg needs a namespace, got %s", svg)
	}
	if !strings.Contains(svg, `<rect width="5" height="5">`) {
		t.Errorf("vector data lost, got %s", svg)
	}
}

func TestMaterializeKeepsSingleNamespace(t *testing.T) {
	in := `<div class="mermaid"><svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"><use xlink:href="#a"></use></svg></div>`
	out, _, err := Materialize(in)
	if err != nil {
		t.Fatal(err)
	}
	m := regexp.MustCompile(`base64,([^"]+)"`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no data URI in output:\n%s", out)
	}
	decoded, _ := base64.StdEncoding.DecodeString(m[1])
	svg := string(decoded)
	if strings.Count(svg, `xmlns="http://www.w3.org/2000/svg"`) != 1 || strings.Contains(svg, "xmlns:xmlns") {
		t.Errorf("expected exactly one plain xmlns, got %s", svg)
	}
	if !strings.Contains(svg, `xlink:href="#a"`) {
		t.Errorf("xlink attribute lost, got %s", svg)
	}
}

func TestMaterializeDoesNotMutateInput(t *testing.T) {
	in := `<div class="mermaid"><svg><g></g></svg></div>`
	orig := in
	if _, _, err := Materialize(in); err != nil {
		t.Fatal(err)
	}
	if in != orig {
		t.Error("input changed")
	}
}

func TestEscapeText(t *testing.T) {
	got := EscapeText(`a <b> & "c"`)
	if got != `a &lt;b&gt; & "c"` {
		t.Errorf("EscapeText = %q", got)
	}
}

func TestBuildPlainTextFallback(t *testing.T) {
	b := &Builder{}
	doc, err := b.Build(context.Background(), Request{Content: "# Title\n<script>x</script>", IsHTML: false})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := string(doc)
	if !strings.Contains(s, "<pre># Title\n&lt;script&gt;x&lt;/script&gt;</pre>") {
		t.Errorf("expected escaped raw text in <pre>, got:\n%s", s)
	}
	if strings.Contains(s, "<script>") {
		t.Error("raw markup leaked into document")
	}
	if !strings.Contains(s, template.HTMLEscapeString(PrintHint)) {
		t.Error("missing print instruction")
	}
}

type stubBackend struct {
	mu    sync.Mutex
	calls int
}

func (s *stubBackend) Render(ctx context.Context, source string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return `<svg><circle r="4"></circle></svg>`, nil
}

func TestBuildHTMLRendersAndMaterializes(t *testing.T) {
	backend := &stubBackend{}
	q := diagram.NewQueue(backend, 0, time.Second)
	defer q.Close()

	b := &Builder{Renderer: diagram.NewRenderer(q), SettleDelay: time.Millisecond}
	content := `<h1>Doc</h1><pre><code class="language-mermaid">graph TD</code></pre>`
	doc, err := b.Build(context.Background(), Request{Title: "notes.md", Content: content, IsHTML: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := string(doc)
	if backend.calls != 1 {
		t.Errorf("expected a forced render pass, got %d calls", backend.calls)
	}
	if !strings.Contains(s, "<title>notes.md</title>") {
		t.Error("missing title")
	}
	if !strings.Contains(s, "<h1>Doc</h1>") {
		t.Error("missing captured markup")
	}
	if !strings.Contains(s, `class="mermaid-static"`) || strings.Contains(s, "<circle") {
		t.Errorf("diagram not materialised:\n%s", s)
	}
	if !strings.Contains(s, "@media print") {
		t.Error("missing print styling")
	}
}

func TestBuildMinified(t *testing.T) {
	b := &Builder{Minify: true}
	doc, err := b.Build(context.Background(), Request{Content: "<p>hello</p>\n\n\n<div class=\"mermaid\"><svg><g></g></svg></div>", IsHTML: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := string(doc)
	if !strings.Contains(s, "<p>hello</p>") {
		t.Errorf("minified document lost content:\n%s", s)
	}
	if !strings.Contains(s, "data:image/svg+xml;base64,") || strings.Contains(s, "%3Csvg") {
		t.Errorf("diagram data URI must stay base64:\n%s", s)
	}
	if strings.Contains(s, "body { ") {
		t.Error("expected the print stylesheet to be minified")
	}
	if strings.Contains(s, bodyPlaceholder) {
		t.Error("body placeholder left in document")
	}
}

func TestBuildCancelledDuringSettle(t *testing.T) {
	b := &Builder{SettleDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Build(ctx, Request{Content: "<p>x</p>", IsHTML: true}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSpoolerDeletesAfterDelay(t *testing.T) {
	dir := t.TempDir()
	s := NewSpooler(dir, 30*time.Millisecond)

	p1, err := s.Write([]byte("one"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	p2, err := s.Write([]byte("two"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if p1 == p2 {
		t.Error("expected unique names")
	}
	if filepath.Dir(p1) != dir || !strings.HasPrefix(filepath.Base(p1), "mdview-print-") {
		t.Errorf("unexpected path %s", p1)
	}
	if len(s.Pending()) != 2 {
		t.Errorf("expected 2 pending, got %v", s.Pending())
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(s.Pending()) == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	for _, p := range []string{p1, p2} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s deleted, stat err = %v", p, err)
		}
	}
}

func TestSpoolerCloseRemovesOutstanding(t *testing.T) {
	dir := t.TempDir()
	s := NewSpooler(dir, time.Hour)
	p, err := s.Write([]byte("doc"))
	if err != nil {
		t.Fatal(err)
	}
	// Deleting early must not upset the later cleanup.
	os.Remove(p)
	p2, _ := s.Write([]byte("doc2"))

	s.Close()
	if _, err := os.Stat(p2); !os.IsNotExist(err) {
		t.Errorf("expected %s removed on Close", p2)
	}
	if len(s.Pending()) != 0 {
		t.Error("expected nothing pending after Close")
	}
}

func TestGuardRejectsOverlap(t *testing.T) {
	var g Guard
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- g.Do(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := g.Do(func() error { return nil }); !errors.Is(err, ErrPrintInFlight) {
		t.Errorf("expected ErrPrintInFlight, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first print failed: %v", err)
	}
	if err := g.Do(func() error { return nil }); err != nil {
		t.Errorf("guard should be free again, got %v", err)
	}
}

func TestServicePrint(t *testing.T) {
	dir := t.TempDir()
	var opened []string
	svc := NewService(&Builder{}, NewSpooler(dir, time.Hour), OpenerFunc(func(p string) error {
		opened = append(opened, p)
		return nil
	}))
	defer svc.Close()

	path, err := svc.PrintCapture(context.Background(), "a.md", Capture{Raw: "plain <text>"})
	if err != nil {
		t.Fatalf("PrintCapture: %v", err)
	}
	if len(opened) != 1 || opened[0] != path {
		t.Errorf("expected %s opened, got %v", path, opened)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "plain &lt;text&gt;") {
		t.Errorf("expected plain-text fallback, got:\n%s", data)
	}
}

func TestServiceOpenerError(t *testing.T) {
	svc := NewService(&Builder{}, NewSpooler(t.TempDir(), time.Hour), OpenerFunc(func(string) error {
		return errors.New("no viewer")
	}))
	defer svc.Close()

	path, err := svc.Print(context.Background(), Request{Content: "x"})
	if err == nil {
		t.Fatal("expected opener error")
	}
	if path == "" {
		t.Error("path should still be returned when only opening fails")
	}
}
