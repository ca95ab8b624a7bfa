package markdown

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/assemble"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document into elements.
// "# " headings become titles, deeper headings become headers, pipe
// tables become table elements and everything else becomes narrative.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	elements := parse(string(raw.Content))
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: no markdown content in %s", domain.ErrNoContent, raw.URI)
	}
	return assemble.Document(raw, elements), nil
}

var (
	headingPattern   = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*$`)
	listItemPattern  = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+(.+)$`)
	rulePattern      = regexp.MustCompile(`^[-*_]{3,}$`)
	separatorPattern = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(?:\|\s*:?-{3,}:?\s*)*\|?$`)
	pageBreakPattern = regexp.MustCompile(`(?i)^<!--\s*page\s*break\s*-->$`)

	imagePattern  = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkPattern   = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	codePattern   = regexp.MustCompile("`([^`]+)`")
	strongPattern = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	emPattern     = regexp.MustCompile(`\*([^*\s][^*]*)\*`)
)

type parser struct {
	elements []domain.Element
	para     []string
	table    []string
	inCode   bool
	page     int
}

func parse(content string) []domain.Element {
	p := &parser{page: 1}
	content = strings.ReplaceAll(content, "\r\n", "\n")

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			p.flush()
			p.inCode = !p.inCode
			continue
		}
		if p.inCode {
			p.para = append(p.para, line)
			continue
		}

		switch {
		case strings.Contains(line, "\f") || pageBreakPattern.MatchString(trimmed):
			p.flush()
			p.emit(domain.ElementPageBreak, "", "")
			p.page++
		case trimmed == "":
			p.flush()
		case strings.HasPrefix(trimmed, "|"):
			p.flushParagraph()
			p.table = append(p.table, trimmed)
		case headingPattern.MatchString(trimmed):
			p.flush()
			m := headingPattern.FindStringSubmatch(trimmed)
			kind := domain.ElementHeader
			if len(m[1]) == 1 {
				kind = domain.ElementTitle
			}
			p.emit(kind, stripInline(m[2]), "")
		case rulePattern.MatchString(trimmed):
			p.flush()
		case listItemPattern.MatchString(trimmed):
			p.flush()
			p.emit(domain.ElementListItem, stripInline(listItemPattern.FindStringSubmatch(trimmed)[1]), "")
		default:
			p.flushTable()
			p.para = append(p.para, strings.TrimSpace(strings.TrimLeft(trimmed, ">")))
		}
	}
	p.flush()

	return p.elements
}

func (p *parser) emit(kind domain.ElementType, text, markup string) {
	p.elements = append(p.elements, domain.Element{
		ID:         fmt.Sprintf("md-%d", len(p.elements)),
		Type:       kind,
		Text:       text,
		HTML:       markup,
		PageNumber: p.page,
	})
}

func (p *parser) flush() {
	p.flushParagraph()
	p.flushTable()
}

func (p *parser) flushParagraph() {
	if len(p.para) == 0 {
		return
	}
	text := strings.TrimSpace(stripInline(strings.Join(p.para, "\n")))
	p.para = nil
	if text != "" {
		p.emit(domain.ElementNarrative, text, "")
	}
}

func (p *parser) flushTable() {
	if len(p.table) == 0 {
		return
	}
	text, markup := renderTable(p.table)
	p.table = nil
	if text != "" {
		p.emit(domain.ElementTable, text, markup)
	}
}

// renderTable converts pipe-table lines into row text and HTML markup.
// A row followed by a separator line is rendered as the header row.
func renderTable(lines []string) (string, string) {
	var (
		rows   []string
		markup strings.Builder
	)
	markup.WriteString("<table>")

	for i, line := range lines {
		if separatorPattern.MatchString(line) {
			continue
		}
		cells := splitRow(line)
		header := i+1 < len(lines) && separatorPattern.MatchString(lines[i+1])

		tag := "td"
		if header {
			tag = "th"
		}
		markup.WriteString("<tr>")
		for _, c := range cells {
			markup.WriteString("<" + tag + ">" + html.EscapeString(c) + "</" + tag + ">")
		}
		markup.WriteString("</tr>")
		rows = append(rows, strings.Join(cells, " | "))
	}

	markup.WriteString("</table>")
	if len(rows) == 0 {
		return "", ""
	}
	return strings.Join(rows, "\n"), markup.String()
}

func splitRow(line string) []string {
	line = strings.TrimSuffix(strings.TrimPrefix(line, "|"), "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, c := range parts {
		cells[i] = stripInline(strings.TrimSpace(c))
	}
	return cells
}

// stripInline removes inline markdown formatting, keeping the text.
func stripInline(s string) string {
	s = imagePattern.ReplaceAllString(s, "")
	s = linkPattern.ReplaceAllString(s, "$1")
	s = codePattern.ReplaceAllString(s, "$1")
	s = strongPattern.ReplaceAllString(s, "$2")
	s = emPattern.ReplaceAllString(s, "$1")
	return s
}
