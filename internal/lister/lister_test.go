package lister

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// writeFile creates a file (and its parent directories) with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func labels(files []MarkdownFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Label
	}
	return out
}

func TestListRootOnlyNonRecursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# A")
	writeFile(t, filepath.Join(root, "b.md"), "# B")
	writeFile(t, filepath.Join(root, "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, "docs", "c.md"), "# C")

	listing, err := List(Options{Root: root, PathsFile: ".vscode/md_paths"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	got := labels(listing.Files)
	sort.Strings(got) // directory read order is OS-defined
	if len(got) != 2 || got[0] != "a.md" || got[1] != "b.md" {
		t.Errorf("expected [a.md b.md], got %v", got)
	}
	if len(listing.Folders) != 1 || listing.Folders[0] != root {
		t.Errorf("expected folders [%s], got %v", root, listing.Folders)
	}
	if len(listing.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", listing.Warnings)
	}
}

func TestListWithPathsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# A")
	writeFile(t, filepath.Join(root, "docs", "c.md"), "# C")
	writeFile(t, filepath.Join(root, ".vscode", "md_paths"), "docs\n\n"+root+"\n")

	listing, err := List(Options{Root: root, PathsFile: ".vscode/md_paths"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	wantFolders := []string{root, filepath.Join(root, "docs")}
	if len(listing.Folders) != len(wantFolders) {
		t.Fatalf("folders: got %v, want %v", listing.Folders, wantFolders)
	}
	for i := range wantFolders {
		if listing.Folders[i] != wantFolders[i] {
			t.Errorf("folders[%d]: got %q, want %q", i, listing.Folders[i], wantFolders[i])
		}
	}

	got := labels(listing.Files)
	if len(got) != 2 || got[0] != "a.md" || got[1] != "docs/c.md" {
		t.Errorf("expected [a.md docs/c.md], got %v", got)
	}
	if listing.Files[1].Path != filepath.Join(root, "docs", "c.md") {
		t.Errorf("expected absolute path, got %q", listing.Files[1].Path)
	}
}

func TestSearchFoldersOrderAndDedup(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "abs")
	content := "  guides  \r\nnotes\nguides\n" + abs + "\n./guides\n\n"
	writeFile(t, filepath.Join(root, "md_paths"), content)

	folders, err := SearchFolders(root, "md_paths")
	if err != nil {
		t.Fatalf("SearchFolders: %v", err)
	}
	want := []string{root, filepath.Join(root, "guides"), filepath.Join(root, "notes"), abs}
	if len(folders) != len(want) {
		t.Fatalf("got %v, want %v", folders, want)
	}
	for i := range want {
		if folders[i] != want[i] {
			t.Errorf("folders[%d]: got %q, want %q", i, folders[i], want[i])
		}
	}
}

func TestSearchFoldersMissingFile(t *testing.T) {
	root := t.TempDir()
	folders, err := SearchFolders(root, ".vscode/md_paths")
	if err != nil {
		t.Fatalf("missing path-list file should not warn: %v", err)
	}
	if len(folders) != 1 || folders[0] != root {
		t.Errorf("expected [root], got %v", folders)
	}
}

func TestSearchFoldersUnreadableIsWarning(t *testing.T) {
	root := t.TempDir()
	// A directory in place of the file makes ReadFile fail on every OS.
	if err := os.MkdirAll(filepath.Join(root, ".vscode", "md_paths"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "a.md"), "# A")

	listing, err := List(Options{Root: root, PathsFile: ".vscode/md_paths"})
	if err != nil {
		t.Fatalf("List should degrade, got: %v", err)
	}
	if len(listing.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", listing.Warnings)
	}
	if msgs := listing.WarningMessages(); len(msgs) != 1 || msgs[0] == "" {
		t.Errorf("unexpected warning messages %v", msgs)
	}
	if len(listing.Files) != 1 || listing.Files[0].Label != "a.md" {
		t.Errorf("expected root listing to continue, got %v", labels(listing.Files))
	}
}

func TestListSkipsMissingAndNonDirFolders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# A")
	writeFile(t, filepath.Join(root, "file.md"), "# not a dir")
	writeFile(t, filepath.Join(root, "md_paths"), "missing\nfile.md\n")

	listing, err := List(Options{Root: root, PathsFile: "md_paths"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := labels(listing.Files)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a.md" || got[1] != "file.md" {
		t.Errorf("expected [a.md file.md], got %v", got)
	}
}

func TestListExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "# R")
	writeFile(t, filepath.Join(root, "draft-1.md"), "# D")

	listing, err := List(Options{Root: root, Exclude: []string{"draft-*.md"}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := labels(listing.Files)
	if len(got) != 1 || got[0] != "README.md" {
		t.Errorf("expected [README.md], got %v", got)
	}
}

func TestListRootErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := List(Options{Root: filepath.Join(root, "nope")}); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(root, "a.md")
	writeFile(t, file, "# A")
	_, err := List(Options{Root: file})
	if !errors.Is(err, ErrRootNotDir) {
		t.Errorf("expected ErrRootNotDir, got %v", err)
	}
}

func TestListingContains(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# A")

	listing, err := List(Options{Root: root})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !listing.Contains(filepath.Join(root, "a.md")) {
		t.Error("expected listing to contain a.md")
	}
	if listing.Contains(filepath.Join(root, "b.md")) {
		t.Error("did not expect listing to contain b.md")
	}
}

func TestMatchesExclude(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     bool
	}{
		{"README.md", nil, false},
		{"README.md", []string{"README.md"}, true},
		{"draft-x.md", []string{"draft-*"}, true},
		{"final.md", []string{"draft-*", "*.tmp.md"}, false},
		{"a.tmp.md", []string{"*.{tmp,bak}.md"}, true},
	}
	for _, tt := range tests {
		if got := MatchesExclude(tt.name, tt.patterns); got != tt.want {
			t.Errorf("MatchesExclude(%q, %v) = %v, want %v", tt.name, tt.patterns, got, tt.want)
		}
	}
}
