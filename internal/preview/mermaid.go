package preview

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const mermaidLanguage = "mermaid"

// KindMermaidBlock is the node kind of a mermaid fence.
var KindMermaidBlock = ast.NewNodeKind("MermaidBlock")

// MermaidBlock replaces a ```mermaid fence so the highlighter never sees it.
type MermaidBlock struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *MermaidBlock) Kind() ast.NodeKind { return KindMermaidBlock }

// IsRaw implements ast.Node.
func (n *MermaidBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MermaidBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type mermaidTransformer struct{}

func (mermaidTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var fences []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			lang := strings.ToLower(strings.TrimSpace(string(fcb.Language(source))))
			if lang == mermaidLanguage {
				fences = append(fences, fcb)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, fcb := range fences {
		block := &MermaidBlock{}
		block.SetLines(fcb.Lines())
		parent := fcb.Parent()
		parent.ReplaceChild(parent, fcb, block)
	}
}

type mermaidRenderer struct{}

func (r mermaidRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMermaidBlock, r.render)
}

func (r mermaidRenderer) render(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<pre><code class="language-mermaid">`)
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

type mermaidExtension struct{}

// Mermaid is a goldmark extension that keeps mermaid fences unhighlighted.
var Mermaid goldmark.Extender = mermaidExtension{}

func (mermaidExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(mermaidTransformer{}, 100),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(mermaidRenderer{}, 100),
	))
}
