package printdoc

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joelrodriguezguzman/markdown/internal/diagram"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// Materialize returns a copy of fragment in which every <svg> inside a
// .mermaid container is replaced by an <img> carrying the same SVG as a
// base64 data URI. The input string is never modified; it is parsed into
// a fresh tree. The second result is the number of diagrams replaced.
func Materialize(fragment string) (string, int, error) {
	nodes, err := diagram.ParseFragment(fragment)
	if err != nil {
		return "", 0, err
	}

	var svgs []*html.Node
	for _, n := range nodes {
		svgs = collectDiagramSVGs(n, false, svgs)
	}

	for _, svg := range svgs {
		img, err := staticImage(svg)
		if err != nil {
			return "", 0, err
		}
		svg.Parent.InsertBefore(img, svg)
		svg.Parent.RemoveChild(svg)
	}

	out, err := diagram.RenderFragment(nodes)
	if err != nil {
		return "", 0, err
	}
	return out, len(svgs), nil
}

func collectDiagramSVGs(n *html.Node, inDiagram bool, acc []*html.Node) []*html.Node {
	if n.Type == html.ElementNode {
		if inDiagram && n.Data == "svg" && n.Parent != nil {
			return append(acc, n)
		}
		if diagram.HasClass(n, "mermaid") {
			inDiagram = true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		acc = collectDiagramSVGs(c, inDiagram, acc)
	}
	return acc
}

func staticImage(svg *html.Node) (*html.Node, error) {
	// A standalone image needs exactly one default namespace declaration.
	attrs := make([]html.Attribute, 0, len(svg.Attr)+1)
	for _, a := range svg.Attr {
		if a.Key == "xmlns" && (a.Namespace == "" || a.Namespace == "xmlns") {
			continue
		}
		attrs = append(attrs, a)
	}
	svg.Attr = append(attrs, html.Attribute{Key: "xmlns", Val: svgNamespace})

	var buf bytes.Buffer
	if err := html.Render(&buf, svg); err != nil {
		return nil, fmt.Errorf("serialising svg: %w", err)
	}
	src := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	return &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr: []html.Attribute{
			{Key: "class", Val: "mermaid-static"},
			{Key: "alt", Val: "diagram"},
			{Key: "src", Val: src},
		},
	}, nil
}
