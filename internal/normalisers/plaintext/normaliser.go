package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/assemble"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxHeadingLength bounds the length of a line treated as a heading.
const maxHeadingLength = 80

// Normaliser handles plain text documents, such as text dumped from a PDF.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise splits the text into paragraphs at blank lines. Form feeds
// mark page boundaries. A single-line paragraph in upper case is taken as
// a section header.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	elements := parse(string(raw.Content))
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: no text in %s", domain.ErrNoContent, raw.URI)
	}
	return assemble.Document(raw, elements), nil
}

func parse(content string) []domain.Element {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var elements []domain.Element
	emit := func(kind domain.ElementType, text string, page int) {
		elements = append(elements, domain.Element{
			ID:         fmt.Sprintf("txt-%d", len(elements)),
			Type:       kind,
			Text:       text,
			PageNumber: page,
		})
	}

	for i, page := range strings.Split(content, "\f") {
		if i > 0 {
			emit(domain.ElementPageBreak, "", i)
		}
		for _, para := range paragraphs(page) {
			kind := domain.ElementNarrative
			if isHeading(para) {
				kind = domain.ElementHeader
			}
			emit(kind, para, i+1)
		}
	}

	// A document of page breaks alone has no content.
	for _, el := range elements {
		if el.Type != domain.ElementPageBreak {
			return elements
		}
	}
	return nil
}

// paragraphs splits text at blank lines, joining wrapped lines with spaces.
func paragraphs(text string) []string {
	var (
		out   []string
		lines []string
	)
	flush := func() {
		if len(lines) > 0 {
			out = append(out, strings.Join(lines, " "))
			lines = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return out
}

func isHeading(para string) bool {
	if len(para) > maxHeadingLength || strings.HasSuffix(para, ".") {
		return false
	}
	letters := false
	for _, r := range para {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters = true
		}
	}
	return letters
}
