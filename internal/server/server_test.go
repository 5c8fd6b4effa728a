package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joelrodriguezguzman/markdown/internal/config"
	"github.com/joelrodriguezguzman/markdown/internal/editor"
	"github.com/joelrodriguezguzman/markdown/internal/lister"
	"github.com/joelrodriguezguzman/markdown/internal/preview"
	"github.com/joelrodriguezguzman/markdown/internal/theme"
)

func newTestServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	host := editor.NewHost(editor.Options{
		Listing: lister.Options{Root: root, PathsFile: config.DefaultPathsFile},
		CDN:     config.DefaultConfig().CDN,
	}, theme.NewMonitor(theme.Dark), preview.NewRenderer(), nil, nil)
	t.Cleanup(host.Close)
	return New(cfg, host), root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, Config{Port: 0})

	w := do(srv, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t, Config{Port: 0, AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestFilesListing(t *testing.T) {
	srv, root := newTestServer(t, Config{})
	writeFile(t, filepath.Join(root, "b.md"), "b")
	writeFile(t, filepath.Join(root, "a.md"), "a")
	writeFile(t, filepath.Join(root, "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "docs", "guide.md"), "g")
	writeFile(t, filepath.Join(root, ".vscode", "md_paths"), "docs\n")

	w := do(srv, "GET", "/api/files", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var body filesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Folders) != 2 {
		t.Errorf("folders = %v, want root and docs", body.Folders)
	}
	labels := map[string]bool{}
	for _, f := range body.Files {
		labels[f.Label] = true
		if !filepath.IsAbs(f.Path) {
			t.Errorf("path %q is not absolute", f.Path)
		}
	}
	for _, want := range []string{"a.md", "b.md", "docs/guide.md"} {
		if !labels[want] {
			t.Errorf("missing %s in %v", want, body.Files)
		}
	}
	if len(body.Files) != 3 {
		t.Errorf("got %d files, want 3", len(body.Files))
	}
}

func TestFilesEmptyWorkspace(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	w := do(srv, "GET", "/api/files", "")
	if !strings.Contains(w.Body.String(), `"files":[]`) {
		t.Errorf("expected empty files array, got %s", w.Body)
	}
}

func TestTreePageLinksToEditor(t *testing.T) {
	srv, root := newTestServer(t, Config{})
	path := filepath.Join(root, "read me.md")
	writeFile(t, path, "# hi")

	w := do(srv, "GET", "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "read me</a>") {
		t.Errorf("tree page missing file entry:\n%s", w.Body)
	}
	if !strings.Contains(w.Body.String(), "/edit?path=") {
		t.Errorf("tree page missing edit link:\n%s", w.Body)
	}
}

func TestEdit(t *testing.T) {
	srv, root := newTestServer(t, Config{})
	path := filepath.Join(root, "doc.md")
	writeFile(t, path, "# Heading")
	writeFile(t, filepath.Join(root, "doc.txt"), "x")

	w := do(srv, "GET", EditURL(path), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "# Heading") || !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Errorf("unexpected editor document:\n%s", w.Body)
	}

	tests := []struct {
		target string
		status int
	}{
		{"/edit", http.StatusBadRequest},
		{EditURL(filepath.Join(root, "doc.txt")), http.StatusBadRequest},
		{EditURL(filepath.Join(root, "missing.md")), http.StatusNotFound},
		{EditURL(filepath.Join(t.TempDir(), "elsewhere.md")), http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := do(srv, "GET", tt.target, ""); w.Code != tt.status {
			t.Errorf("GET %s: status %d, want %d", tt.target, w.Code, tt.status)
		}
	}
}

func TestStylesheet(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := do(srv, "GET", "/assets/app.css?theme=light", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != theme.Stylesheet(theme.Light) {
		t.Error("stylesheet does not match the light theme")
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("content type = %q", ct)
	}

	// Defaults to the host theme.
	w = do(srv, "GET", "/assets/app.css", "")
	if w.Body.String() != theme.Stylesheet(theme.Dark) {
		t.Error("stylesheet does not match the host theme")
	}

	if w := do(srv, "GET", "/assets/app.css?theme=sepia", ""); w.Code != http.StatusBadRequest {
		t.Errorf("unknown theme: status %d, want 400", w.Code)
	}
}

func TestThemeEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := do(srv, "GET", "/api/theme", "")
	if !strings.Contains(w.Body.String(), `"theme":"dark"`) {
		t.Errorf("unexpected body %s", w.Body)
	}

	w = do(srv, "PUT", "/api/theme", `{"theme":"light"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp themeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Theme != "light" || !resp.Changed {
		t.Errorf("unexpected response %+v", resp)
	}
	if srv.host.Themes().Current() != theme.Light {
		t.Error("host theme not updated")
	}

	w = do(srv, "PUT", "/api/theme", `{"theme":"light"}`)
	var again themeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &again); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if again.Theme != "light" || again.Changed {
		t.Error("setting the same theme should not report a change")
	}

	for _, body := range []string{`{"theme":"blue"}`, `nope`} {
		if w := do(srv, "PUT", "/api/theme", body); w.Code != http.StatusBadRequest {
			t.Errorf("PUT %s: status %d, want 400", body, w.Code)
		}
	}
}

func TestBuildTree(t *testing.T) {
	files := []lister.MarkdownFile{
		{Path: "/w/z.md", Label: "z.md"},
		{Path: "/w/a.md", Label: "a.md"},
		{Path: "/w/my-docs/intro.md", Label: "my-docs/intro.md"},
		{Path: "/other/x.md", Label: "../other/x.md"},
	}
	tree := BuildTree(files)
	if len(tree.Children) != 4 {
		t.Fatalf("expected 4 top-level nodes, got %d", len(tree.Children))
	}
	// Listing order is kept.
	if tree.Children[0].Name != "z.md" || tree.Children[1].Name != "a.md" {
		t.Errorf("unexpected order: %s, %s", tree.Children[0].Name, tree.Children[1].Name)
	}
	dir := tree.Children[2]
	if !dir.IsDir || dir.Title != "My Docs" || len(dir.Children) != 1 {
		t.Errorf("unexpected dir node %+v", dir)
	}

	out := tree.ToHTML()
	if !strings.Contains(out, `<a href="/edit?path=%2Fw%2Fz.md">z</a>`) {
		t.Errorf("unexpected html:\n%s", out)
	}
	if !strings.Contains(out, `<span class="dir-toggle">..</span>`) {
		t.Errorf("expected parent dir node:\n%s", out)
	}
}
