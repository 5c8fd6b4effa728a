// Package lister discovers markdown files under a project root and the
// extra folders named in its path-list file. The scan is non-recursive.
package lister

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrRootNotDir is returned when the listing root is not a directory.
var ErrRootNotDir = errors.New("lister: root is not a directory")

// MarkdownFile is one discovered file.
type MarkdownFile struct {
	Path  string `json:"path"`  // Absolute path on disk.
	Label string `json:"label"` // Path relative to the root, slash-separated.
}

// Options controls a listing.
type Options struct {
	Root      string   // Project root; must exist.
	PathsFile string   // Path-list file, relative to Root unless absolute. Empty disables it.
	Exclude   []string // Glob patterns matched against file names.
}

// Listing is the result of one scan.
type Listing struct {
	Root     string         `json:"root"`
	Folders  []string       `json:"folders"`
	Files    []MarkdownFile `json:"files"`
	Warnings []error        `json:"-"`
}

// WarningMessages returns the warnings as plain strings.
func (l *Listing) WarningMessages() []string {
	msgs := make([]string, 0, len(l.Warnings))
	for _, w := range l.Warnings {
		msgs = append(msgs, w.Error())
	}
	return msgs
}

// List scans the root and every extra folder for .md files. Only a missing
// or non-directory root is fatal; a path-list read failure is recorded in
// Warnings and the listing continues with the root alone.
func List(opts Options) (*Listing, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("lister: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("lister: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}

	listing := &Listing{Root: root}

	folders, warn := SearchFolders(root, opts.PathsFile)
	if warn != nil {
		listing.Warnings = append(listing.Warnings, warn)
	}
	listing.Folders = folders

	for _, folder := range folders {
		files, err := scanFolder(root, folder, opts.Exclude)
		if err != nil {
			// A folder that vanished or cannot be read is skipped.
			continue
		}
		listing.Files = append(listing.Files, files...)
	}

	return listing, nil
}

// SearchFolders returns root followed by each valid line of the path-list
// file in file order. Blank lines, lines equal to root and duplicates (by
// resolved absolute path) are dropped. A missing path-list file is not an
// error; an unreadable one yields [root] plus a non-nil warning.
func SearchFolders(root, pathsFile string) ([]string, error) {
	folders := []string{root}
	if pathsFile == "" {
		return folders, nil
	}

	listPath := pathsFile
	if !filepath.IsAbs(listPath) {
		listPath = filepath.Join(root, listPath)
	}

	if _, err := os.Stat(listPath); os.IsNotExist(err) {
		return folders, nil
	}

	data, err := os.ReadFile(listPath)
	if err != nil {
		return folders, fmt.Errorf("could not read %s: %w", pathsFile, err)
	}

	seen := map[string]bool{filepath.Clean(root): true}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == root {
			continue
		}
		abs := line
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, abs)
		}
		abs = filepath.Clean(abs)
		if seen[abs] {
			continue
		}
		seen[abs] = true
		folders = append(folders, abs)
	}
	return folders, nil
}

// scanFolder lists the .md entries directly inside folder, in directory
// read order. Missing folders and non-directories yield an error.
func scanFolder(root, folder string, exclude []string) ([]MarkdownFile, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", folder)
	}

	dir, err := os.Open(folder)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	// File.ReadDir keeps directory order; os.ReadDir would sort by name.
	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	var files []MarkdownFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		if MatchesExclude(name, exclude) {
			continue
		}
		full := filepath.Join(folder, name)
		label, err := filepath.Rel(root, full)
		if err != nil {
			label = full
		}
		files = append(files, MarkdownFile{
			Path:  full,
			Label: filepath.ToSlash(label),
		})
	}
	return files, nil
}

// Contains reports whether path is one of the listed files.
func (l *Listing) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, f := range l.Files {
		if f.Path == abs {
			return true
		}
	}
	return false
}
