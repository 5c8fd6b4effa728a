package printdoc

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	mhtml "github.com/tdewolff/minify/v2/html"

	"github.com/joelrodriguezguzman/markdown/internal/diagram"
)

// PrintHint is the one-line on-screen instruction shown above the content.
const PrintHint = "Press Ctrl+P (Cmd+P on macOS) to print this document."

const printCSS = `
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; color: #222; background: #fff; margin: 2rem; line-height: 1.6; }
pre { background: #f6f8fa; padding: 1em; border-radius: 6px; white-space: pre-wrap; word-wrap: break-word; font-family: Consolas, "Courier New", monospace; font-size: 85%; }
code { font-family: Consolas, "Courier New", monospace; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
img { max-width: 100%; }
.mermaid { text-align: center; margin: 1em 0; }
.mermaid-error pre { color: red; }
.print-hint { font-size: 0.9em; color: #555; border-bottom: 1px solid #ccc; padding-bottom: 0.5em; }
@media print {
  body { margin: 0; }
  .print-hint { display: none; }
  pre, img, .mermaid { page-break-inside: avoid; }
}
`

var documentTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
<p class="print-hint">{{.Hint}}</p>
<main class="print-content">
{{.Body}}
</main>
</body>
</html>
`))

type documentData struct {
	Title string
	CSS   template.CSS
	Hint  string
	Body  template.HTML
}

// Request describes one print job.
type Request struct {
	Title   string
	Content string
	IsHTML  bool
}

// Builder turns a Request into a standalone HTML document.
type Builder struct {
	// Renderer, when set, runs a diagram pass over HTML content before capture.
	Renderer    *diagram.Renderer
	SettleDelay time.Duration
	Minify      bool
}

// Build produces the document bytes. HTML content gets a diagram pass,
// the settle delay and SVG materialisation; plain text is escaped into a
// <pre> block.
func (b *Builder) Build(ctx context.Context, req Request) ([]byte, error) {
	title := req.Title
	if title == "" {
		title = "MarkDown View"
	}

	var body string
	if req.IsHTML {
		fragment := req.Content
		if b.Renderer != nil {
			out, stats, err := b.Renderer.Process(ctx, fragment)
			if err != nil {
				return nil, fmt.Errorf("rendering diagrams: %w", err)
			}
			fragment = out
			if stats.Failed > 0 {
				log.Printf("printdoc: %d diagram(s) failed to render", stats.Failed)
			}
		}
		if b.SettleDelay > 0 {
			select {
			case <-time.After(b.SettleDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		materialized, _, err := Materialize(fragment)
		if err != nil {
			return nil, fmt.Errorf("materialising diagrams: %w", err)
		}
		body = materialized
	} else {
		body = "<pre>" + EscapeText(req.Content) + "</pre>"
	}

	if !b.Minify {
		return renderDocument(title, body)
	}

	// The minifier re-encodes data URIs, so only the shell is minified and
	// the materialised body is spliced in afterwards.
	shell, err := renderDocument(title, bodyPlaceholder)
	if err != nil {
		return nil, err
	}
	shell, err = minifyDocument(shell)
	if err != nil {
		return nil, err
	}
	if bytes.Count(shell, []byte(bodyPlaceholder)) != 1 {
		return nil, fmt.Errorf("minifying print document: body placeholder lost")
	}
	return bytes.Replace(shell, []byte(bodyPlaceholder), []byte(body), 1), nil
}

const bodyPlaceholder = "mdview-print-body-d1f0c6a2"

func renderDocument(title, body string) ([]byte, error) {
	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, documentData{
		Title: title,
		CSS:   template.CSS(printCSS),
		Hint:  PrintHint,
		Body:  template.HTML(body),
	})
	if err != nil {
		return nil, fmt.Errorf("executing print template: %w", err)
	}
	return buf.Bytes(), nil
}

// EscapeText escapes the characters that would otherwise open or close
// markup in raw source text.
func EscapeText(s string) string {
	return strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(s)
}

func minifyDocument(doc []byte) ([]byte, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &mhtml.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	out, err := m.Bytes("text/html", doc)
	if err != nil {
		return nil, fmt.Errorf("minifying print document: %w", err)
	}
	return out, nil
}
