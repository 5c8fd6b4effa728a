package diagram

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Stats counts the outcome of one Process call.
type Stats struct {
	Rendered int
	Failed   int
}

// Renderer rewrites preview HTML so that every mermaid source becomes a
// rendered diagram container.
type Renderer struct {
	queue *Queue

	// OnRendered, when set, is called after each diagram completes, in
	// source order.
	OnRendered func(index int, err error)
	Verbose    bool
}

// NewRenderer returns a Renderer that submits work to q.
func NewRenderer(q *Queue) *Renderer {
	return &Renderer{queue: q}
}

// target is one diagram found in the fragment.
type target struct {
	node   *html.Node // node to replace
	source string
}

// Process finds unrendered mermaid sources in fragment, renders them one
// at a time in document order and returns the rewritten fragment. A failed
// diagram is replaced with an error container and the rest still render.
// Only context cancellation aborts the pass.
func (r *Renderer) Process(ctx context.Context, fragment string) (string, Stats, error) {
	var stats Stats

	nodes, err := ParseFragment(fragment)
	if err != nil {
		return "", stats, err
	}

	var targets []target
	for _, n := range nodes {
		targets = collectTargets(n, targets)
	}
	if len(targets) == 0 {
		return fragment, stats, nil
	}

	for i, t := range targets {
		var res Result
		select {
		case res = <-r.queue.Submit(ctx, t.source):
		case <-ctx.Done():
			return "", stats, ctx.Err()
		}
		if res.Err != nil && ctx.Err() != nil {
			return "", stats, ctx.Err()
		}

		var repl *html.Node
		if res.Err != nil {
			stats.Failed++
			repl = errorContainer(t.source, res.Err)
			if r.Verbose {
				log.Printf("diagram: render %d failed: %v", i, res.Err)
			}
		} else {
			stats.Rendered++
			repl = renderedContainer(t.source, res.SVG)
			if r.Verbose {
				log.Printf("diagram: rendered %d (%d bytes)", i, len(res.SVG))
			}
		}
		nodes = replaceNode(nodes, t.node, repl)

		if r.OnRendered != nil {
			r.OnRendered(i, res.Err)
		}
	}

	out, err := RenderFragment(nodes)
	if err != nil {
		return "", stats, err
	}
	return out, stats, nil
}

// collectTargets walks n in document order. Two forms are picked up:
// <pre><code class="language-mermaid"> blocks and .mermaid containers
// (div or pre) that hold no <svg>. Matched subtrees are not descended into.
func collectTargets(n *html.Node, acc []target) []target {
	if n.Type == html.ElementNode {
		switch {
		case HasClass(n, "mermaid"):
			if FindFirst(n, isSVG) == nil {
				src, ok := attr(n, "data-source")
				if !ok {
					src = textContent(n)
				}
				return append(acc, target{node: n, source: strings.TrimSpace(src)})
			}
			return acc
		case n.DataAtom == atom.Pre:
			if code := firstElementChild(n); code != nil && code.DataAtom == atom.Code && HasClass(code, "language-mermaid") {
				return append(acc, target{node: n, source: textContent(code)})
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		acc = collectTargets(c, acc)
	}
	return acc
}

func renderedContainer(source, svg string) *html.Node {
	div := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: "mermaid"},
			{Key: "data-processed", Val: "true"},
			{Key: "data-source", Val: source},
		},
	}
	// Drop an XML prolog or doctype ahead of the <svg> root.
	if i := strings.Index(svg, "<svg"); i > 0 {
		svg = svg[i:]
	}
	children, err := html.ParseFragment(strings.NewReader(svg), div)
	if err != nil {
		return errorContainer(source, fmt.Errorf("parsing rendered svg: %w", err))
	}
	for _, c := range children {
		div.AppendChild(c)
	}
	return div
}

func errorContainer(source string, renderErr error) *html.Node {
	div := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: "mermaid mermaid-error"},
			{Key: "data-source", Val: source},
		},
	}
	pre := &html.Node{
		Type:     html.ElementNode,
		Data:     "pre",
		DataAtom: atom.Pre,
		Attr:     []html.Attribute{{Key: "style", Val: "color:red"}},
	}
	pre.AppendChild(&html.Node{Type: html.TextNode, Data: "Mermaid render error: " + renderErr.Error()})
	div.AppendChild(pre)
	return div
}

// replaceNode swaps old for repl, either in its parent or, for a
// top-level node, in the fragment slice.
func replaceNode(nodes []*html.Node, old, repl *html.Node) []*html.Node {
	if old.Parent != nil {
		old.Parent.InsertBefore(repl, old)
		old.Parent.RemoveChild(old)
		return nodes
	}
	for i, n := range nodes {
		if n == old {
			nodes[i] = repl
		}
	}
	return nodes
}

// ParseFragment parses an HTML fragment in a <body> context.
func ParseFragment(fragment string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parsing preview html: %w", err)
	}
	return nodes, nil
}

// RenderFragment serialises nodes back to HTML.
func RenderFragment(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("rendering html: %w", err)
		}
	}
	return buf.String(), nil
}

// HasClass reports whether n's class attribute contains class.
func HasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// FindFirst returns the first descendant of n (depth first) matching pred.
func FindFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			return c
		}
		if found := FindFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func isSVG(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.Svg || n.Data == "svg")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
