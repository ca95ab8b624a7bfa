package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// sectionPrefix matches the context line the chunker puts on narrative chunks.
var sectionPrefix = regexp.MustCompile(`^\[Section:\s*(.+?)\]\s*\n?`)

// minStrayChunk is the length below which uncategorised chunks are noise.
const minStrayChunk = 20

// decomposeDocument rebuilds the document's sections. It tries, in order,
// the element stream, the stored chunks, the tables and the full text.
func decomposeDocument(doc *domain.Document, chunks []domain.Chunk) []domain.Section {
	if doc == nil {
		return nil
	}
	if sections := sectionsFromElements(doc.Elements); len(sections) > 0 {
		return sections
	}
	if sections := sectionsFromChunks(chunks); len(sections) > 0 {
		return sections
	}
	if sections := sectionsFromTables(doc.Tables); len(sections) > 0 {
		return sections
	}
	if text := strings.TrimSpace(doc.Metadata.FullText); text != "" {
		return []domain.Section{{Name: domain.SectionFullDocument, Text: text}}
	}
	return nil
}

type sectionBuilder struct {
	name  string
	parts []string
	pages map[int]struct{}
}

func (b *sectionBuilder) flush(out []domain.Section) []domain.Section {
	if len(b.parts) == 0 {
		return out
	}
	pages := make([]int, 0, len(b.pages))
	for p := range b.pages {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return append(out, domain.Section{
		Name:  b.name,
		Text:  strings.Join(b.parts, "\n\n"),
		Pages: pages,
	})
}

func sectionsFromElements(elements []domain.Element) []domain.Section {
	var sections []domain.Section
	cur := &sectionBuilder{name: domain.SectionPreamble, pages: map[int]struct{}{}}

	for i := range elements {
		el := &elements[i]
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		if el.Type.StartsSection() {
			sections = cur.flush(sections)
			cur = &sectionBuilder{name: text, pages: map[int]struct{}{}}
			continue
		}
		cur.parts = append(cur.parts, el.Text)
		if el.PageNumber > 0 {
			cur.pages[el.PageNumber] = struct{}{}
		}
	}
	return cur.flush(sections)
}

func sectionsFromChunks(chunks []domain.Chunk) []domain.Section {
	groups := make(map[string]*sectionBuilder)
	var order []string

	for i := range chunks {
		c := &chunks[i]
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		if c.ElementType == domain.ElementOther && len([]rune(text)) < minStrayChunk {
			continue
		}

		name := domain.SectionGeneral
		if m := sectionPrefix.FindStringSubmatchIndex(c.Text); m != nil {
			name = strings.TrimSpace(c.Text[m[2]:m[3]])
			text = strings.TrimSpace(c.Text[m[1]:])
		}
		if text == "" {
			continue
		}

		b, ok := groups[name]
		if !ok {
			b = &sectionBuilder{name: name, pages: map[int]struct{}{}}
			groups[name] = b
			order = append(order, name)
		}
		b.parts = append(b.parts, text)
		if c.PageNumber > 0 {
			b.pages[c.PageNumber] = struct{}{}
		}
	}

	var sections []domain.Section
	for _, name := range order {
		sections = groups[name].flush(sections)
	}
	return sections
}

func sectionsFromTables(tables []domain.Table) []domain.Section {
	var parts []string
	pages := map[int]struct{}{}
	for _, t := range tables {
		text := strings.TrimSpace(t.PlainText)
		if text == "" {
			continue
		}
		label := "[Table]"
		if t.FinancialStatementType != "" {
			label = "[" + t.FinancialStatementType + "]"
		}
		parts = append(parts, label+"\n"+text)
		if t.PageNumber > 0 {
			pages[t.PageNumber] = struct{}{}
		}
	}
	b := &sectionBuilder{name: domain.SectionTables, parts: parts, pages: pages}
	return b.flush(nil)
}

// documentContext renders sections as a single prompt context, capped at
// limit characters.
func documentContext(sections []domain.Section, limit int) string {
	var parts []string
	for _, s := range sections {
		if s.Text == "" {
			continue
		}
		parts = append(parts, "=== SECTION: "+s.Name+" ===\n"+s.Text)
	}
	return truncateRunes(strings.Join(parts, "\n\n"), limit)
}

const (
	maxPromptTables = 15
	maxTableChars   = 800
)

// tablesText renders the first tables for an assessment prompt.
func tablesText(tables []domain.Table) string {
	var parts []string
	for _, t := range tables {
		if len(parts) == maxPromptTables {
			break
		}
		text := t.PlainText
		if text == "" {
			text = t.HTML
		}
		if text == "" {
			continue
		}
		parts = append(parts, truncateRunes(text, maxTableChars))
	}
	return strings.Join(parts, "\n---\n")
}
