// Package theme holds the light/dark colour tables used by the editor and
// substitutes them into the embedded stylesheet template.
package theme

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed editor.css.tmpl
var styleTemplate string

// Kind is the binary host theme flag.
type Kind int

const (
	Light Kind = iota
	Dark
)

func (k Kind) String() string {
	if k == Dark {
		return "dark"
	}
	return "light"
}

// ParseKind maps "light" or "dark" (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return Light, fmt.Errorf("theme: unknown kind %q", s)
}

// Variable is one symbolic colour.
type Variable struct {
	Name  string
	Value string
}

// Variables is an ordered, immutable set of colours for one Kind.
type Variables []Variable

// Get returns the value of name, or "" when absent.
func (v Variables) Get(name string) string {
	for _, vv := range v {
		if vv.Name == name {
			return vv.Value
		}
	}
	return ""
}

// palette rows are name, light, dark.
var palette = [][3]string{
	{"background", "#fff", "#000"},
	{"color", "#111", "#fff"},
	{"toolbarBg", "#eee", "#111"},
	{"toolbarBorder", "#ccc", "#333"},
	{"toolbarIcon", "#333", "#ccc"},
	{"toolbarIconHover", "#111", "#fff"},
	{"previewBg", "#fff", "#0d1117"},
	{"previewColor", "#222", "#c9d1d9"},
	{"headingBorder", "#ccc", "#30363d"},
	{"headingColor", "#222", "#c9d1d9"},
	{"inlineCodeBg", "#f6f8fa", "#161b22"},
	{"inlineCodeColor", "#6e5494", "#d2a8ff"},
	{"preBg", "#f6f8fa", "#161b22"},
	{"preColor", "#222", "#c9d1d9"},
	{"cmBg", "#fff", "#0d1117"},
	{"cmColor", "#222", "#c9d1d9"},
	{"cmGutterBorder", "#ccc", "#30363d"},
	{"cmCursor", "#222", "#c9d1d9"},
	{"cmHeader", "#005cc5", "#58a6ff"},
	{"cmStrong", "#222", "#f0f6fc"},
	{"cmEm", "#222", "#c9d1d9"},
	{"cmLink", "#0366d6", "#79c0ff"},
	{"cmComment", "#6a737d", "#8b949e"},
}

// Vars returns the colour table for kind.
func Vars(kind Kind) Variables {
	col := 1
	if kind == Dark {
		col = 2
	}
	vars := make(Variables, len(palette))
	for i, row := range palette {
		vars[i] = Variable{Name: row[0], Value: row[col]}
	}
	return vars
}

// Stylesheet returns the editor CSS with every {{name}} placeholder
// replaced by the colour for kind.
func Stylesheet(kind Kind) string {
	vars := Vars(kind)
	pairs := make([]string, 0, len(vars)*2)
	for _, v := range vars {
		pairs = append(pairs, "{{"+v.Name+"}}", v.Value)
	}
	return strings.NewReplacer(pairs...).Replace(styleTemplate)
}
