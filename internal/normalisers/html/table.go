package html

import (
	"errors"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoTable indicates the markup holds no table rows.
var ErrNoTable = errors.New("no table rows in markup")

// TableText renders every row of every table in markup as one line,
// cells joined by " | ". Returns ErrNoTable when no <tr> with text exists.
func TableText(markup string) (string, error) {
	root, err := nethtml.Parse(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	var rows []string
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.ElementNode && n.DataAtom == atom.Tr {
			if row := rowText(n); row != "" {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(rows) == 0 {
		return "", ErrNoTable
	}
	return strings.Join(rows, "\n"), nil
}

// Text returns the visible text of markup with block elements on their own lines.
func Text(markup string) (string, error) {
	root, err := nethtml.Parse(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		switch n.Type {
		case nethtml.TextNode:
			b.WriteString(n.Data)
		case nethtml.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == nethtml.ElementNode && isBlock(n.DataAtom) {
			b.WriteString("\n")
		}
	}
	walk(root)

	return tidyLines(b.String()), nil
}

// rowText joins the cell texts of a <tr>.
func rowText(tr *nethtml.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != nethtml.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		cells = append(cells, collapse(nodeText(c)))
	}
	for _, cell := range cells {
		if cell != "" {
			return strings.Join(cells, " | ")
		}
	}
	return ""
}

func nodeText(n *nethtml.Node) string {
	if n.Type == nethtml.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
		if c.Type == nethtml.ElementNode && c.DataAtom == atom.Br {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Li, atom.Tr, atom.Table,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Section, atom.Article, atom.Blockquote, atom.Pre:
		return true
	default:
		return false
	}
}

// collapse folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tidyLines collapses whitespace per line and drops empty lines.
func tidyLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = collapse(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
