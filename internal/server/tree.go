package server

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/joelrodriguezguzman/markdown/internal/lister"
)

// FileTree is a node in the workspace tree shown on the index page.
type FileTree struct {
	Name     string
	Title    string // display name; directories are title-cased
	Path     string // for files: absolute path. For dirs: slash-separated label prefix.
	IsDir    bool
	Children []*FileTree
}

// BuildTree groups listed files by the folders in their labels. Children
// keep listing order so the page shows files the way they were found.
func BuildTree(files []lister.MarkdownFile) *FileTree {
	root := &FileTree{Name: ".", IsDir: true}

	for _, f := range files {
		parts := strings.Split(f.Label, "/")
		current := root
		for i, part := range parts {
			isLast := i == len(parts)-1
			var next *FileTree
			for _, child := range current.Children {
				if child.Name == part && child.IsDir == !isLast {
					next = child
					break
				}
			}
			if next == nil {
				next = &FileTree{Name: part, IsDir: !isLast}
				if isLast {
					next.Path = f.Path
					next.Title = strings.TrimSuffix(part, ".md")
				} else {
					next.Path = strings.Join(parts[:i+1], "/")
					next.Title = formatDirName(part)
				}
				current.Children = append(current.Children, next)
			}
			current = next
		}
	}
	return root
}

// ToHTML renders the tree as nested <ul><li> HTML. Each file links to the
// editor open command.
func (t *FileTree) ToHTML() string {
	var b strings.Builder
	renderChildren(&b, t)
	return b.String()
}

func renderChildren(b *strings.Builder, node *FileTree) {
	if len(node.Children) == 0 {
		return
	}
	b.WriteString("<ul>\n")
	for _, child := range node.Children {
		if child.IsDir {
			fmt.Fprintf(b, `<li class="dir"><span class="dir-toggle">%s</span>`+"\n", html.EscapeString(child.Title))
			renderChildren(b, child)
			b.WriteString("</li>\n")
			continue
		}
		fmt.Fprintf(b, `<li class="file"><a href="%s">%s</a></li>`+"\n",
			html.EscapeString(EditURL(child.Path)), html.EscapeString(child.Title))
	}
	b.WriteString("</ul>\n")
}

// EditURL returns the open-command link for an absolute markdown path.
func EditURL(path string) string {
	return "/edit?" + url.Values{"path": {path}}.Encode()
}

// formatDirName converts a directory name to a human-readable display name.
func formatDirName(name string) string {
	if name == ".." || strings.HasPrefix(name, ".") {
		return name
	}
	words := strings.FieldsFunc(name, func(c rune) bool {
		return c == '-' || c == '_'
	})
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	if len(words) == 0 {
		return name
	}
	return strings.Join(words, " ")
}
