// Package htmlpage loads HTML filings, such as annual reports published as
// web pages, into document elements.
package htmlpage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/assemble"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 60
}

// Normalise walks the HTML body in document order. h1 becomes a title,
// h2 to h6 become headers, tables keep their markup and other block
// elements become narrative text. Elements carrying a page-break style
// start a new page.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	root, err := nethtml.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", domain.ErrInvalidInput, err)
	}

	w := &walker{page: 1}
	w.walk(root)
	w.flushInline()

	if len(w.elements) == 0 {
		return nil, fmt.Errorf("%w: no text in %s", domain.ErrNoContent, raw.URI)
	}
	return assemble.Document(raw, w.elements), nil
}

type walker struct {
	elements []domain.Element
	inline   strings.Builder
	page     int
}

func (w *walker) walk(n *nethtml.Node) {
	switch n.Type {
	case nethtml.TextNode:
		w.inline.WriteString(n.Data)
		return
	case nethtml.ElementNode:
	default:
		w.children(n)
		return
	}

	if isPageBreak(n) {
		w.flushInline()
		w.emit(domain.ElementPageBreak, "", "")
		w.page++
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Noscript, atom.Template:
		return
	case atom.H1:
		w.block(n, domain.ElementTitle)
	case atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.block(n, domain.ElementHeader)
	case atom.P, atom.Blockquote, atom.Pre, atom.Dd, atom.Dt, atom.Figcaption:
		w.block(n, domain.ElementNarrative)
	case atom.Li:
		w.block(n, domain.ElementListItem)
	case atom.Table:
		w.table(n)
	case atom.Br:
		w.inline.WriteString(" ")
	default:
		if isContainer(n.DataAtom) {
			w.flushInline()
			w.children(n)
			w.flushInline()
			return
		}
		w.children(n)
	}
}

func (w *walker) children(n *nethtml.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// block emits n as one element. Nested tables are emitted on their own.
func (w *walker) block(n *nethtml.Node, kind domain.ElementType) {
	w.flushInline()

	if hasTable(n) {
		w.children(n)
		w.flushInline()
		return
	}

	if text := collapse(textOf(n)); text != "" {
		w.emit(kind, text, "")
	}
}

func (w *walker) table(n *nethtml.Node) {
	w.flushInline()

	var buf bytes.Buffer
	if err := nethtml.Render(&buf, n); err != nil {
		return
	}
	markup := buf.String()

	text, err := html.TableText(markup)
	if err != nil {
		text = collapse(textOf(n))
	}
	if text != "" {
		w.emit(domain.ElementTable, text, markup)
	}
}

func (w *walker) flushInline() {
	text := collapse(w.inline.String())
	w.inline.Reset()
	if text != "" {
		w.emit(domain.ElementNarrative, text, "")
	}
}

func (w *walker) emit(kind domain.ElementType, text, markup string) {
	w.elements = append(w.elements, domain.Element{
		ID:         fmt.Sprintf("html-%d", len(w.elements)),
		Type:       kind,
		Text:       text,
		HTML:       markup,
		PageNumber: w.page,
	})
}

func isContainer(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Body, atom.Header,
		atom.Footer, atom.Nav, atom.Aside, atom.Ul, atom.Ol, atom.Dl, atom.Figure, atom.Html:
		return true
	default:
		return false
	}
}

func isPageBreak(n *nethtml.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "style":
			style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
			if strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page") {
				return true
			}
		case "class":
			for _, c := range strings.Fields(a.Val) {
				if c == "page-break" || c == "pagebreak" {
					return true
				}
			}
		}
	}
	return false
}

func hasTable(n *nethtml.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == nethtml.ElementNode && (c.DataAtom == atom.Table || hasTable(c)) {
			return true
		}
	}
	return false
}

func textOf(n *nethtml.Node) string {
	if n.Type == nethtml.TextNode {
		return n.Data
	}
	if n.Type == nethtml.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
		if c.Type == nethtml.ElementNode && c.DataAtom == atom.Br {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
