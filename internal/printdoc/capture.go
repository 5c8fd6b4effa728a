// Package printdoc builds standalone printable documents from the preview
// pane or, failing that, the raw markdown source.
package printdoc

import "strings"

// Capture is the state of the rendering surface at print time.
type Capture struct {
	Preview    string // full preview pane markup, "" when inactive
	SideBySide string // side-by-side pane markup, "" when inactive
	Raw        string // unrendered editor text
}

// Select picks the print source: the full preview, then the side-by-side
// preview, then the raw text. Whitespace-only panes count as empty.
func (c Capture) Select() (content string, isHTML bool) {
	if strings.TrimSpace(c.Preview) != "" {
		return c.Preview, true
	}
	if strings.TrimSpace(c.SideBySide) != "" {
		return c.SideBySide, true
	}
	return c.Raw, false
}

// PreviewActive reports whether either preview pane has content.
func (c Capture) PreviewActive() bool {
	_, isHTML := c.Select()
	return isHTML
}
