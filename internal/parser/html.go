package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var headingAtoms = map[atom.Atom]int{
	atom.H1: 1,
	atom.H2: 2,
	atom.H3: 3,
	atom.H4: 4,
	atom.H5: 5,
	atom.H6: 6,
}

// HTMLParser handles HTML files. The <title> element, when present, is laid
// out above every heading so it classifies as the document title. Whitespace
// is collapsed as a browser would, except inside <pre>; <br> breaks a line.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	b := newPageBuilder()
	if title := findElement(root, atom.Title); title != nil {
		b.add(nodeText(title, false), titleSize, headingFont)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level, ok := headingAtoms[n.DataAtom]; ok {
				b.heading(nodeText(n, false), level)
				return
			}
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Nav, atom.Footer, atom.Title:
				return
			case atom.Pre:
				b.body(nodeText(n, true))
				return
			case atom.P, atom.Li, atom.Td, atom.Th, atom.Dt, atom.Dd, atom.Blockquote, atom.Figcaption:
				b.body(nodeText(n, false))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	start := findElement(root, atom.Body)
	if start == nil {
		start = root
	}
	walk(start)

	return b.document(filename), nil
}

// nodeText returns the text under n, one line per <br>. Unless pre is set,
// source newlines count as spaces and whitespace runs collapse to one space.
func nodeText(n *html.Node, pre bool) string {
	var buf strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			if pre {
				buf.WriteString(n.Data)
			} else {
				buf.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
			}
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			buf.WriteByte('\n')
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	if pre {
		return buf.String()
	}
	lines := strings.Split(buf.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// findElement returns the first element with tag a in document order.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
