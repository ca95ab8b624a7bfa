// Package chunker provides the section- and table-aware chunker.
//
// The chunker walks a document's elements in order while tracking the
// section path opened by Title and Header elements. Tables become exactly
// one chunk each. Narrative text is split only when its context-prefixed
// form exceeds the size budget.
package chunker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	htmltext "github.com/custodia-labs/sercha-comply/internal/normalisers/html"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// chunkNamespace scopes deterministic chunk ids.
var chunkNamespace = uuid.MustParse("6f1c3c2e-8a4e-5b1d-9a57-2f0f3c9e4d10")

// Processor splits document elements into section-aware chunks.
type Processor struct {
	chunkSize int
	overlap   int
	splitter  Splitter
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSplitter replaces the narrative splitter.
func WithSplitter(s Splitter) Option {
	return func(p *Processor) {
		if s != nil {
			p.splitter = s
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	if p.splitter == nil {
		p.splitter = NewRecursiveSplitter(p.chunkSize, p.overlap)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "section-aware"
}

// ChunkSize returns the narrative size budget.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the overlap between consecutive narrative pieces.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk converts the document's elements into chunks.
// Title elements reset the section path, Header elements extend it, and
// neither becomes a chunk. Page breaks and empty elements are skipped.
func (p *Processor) Chunk(
	ctx context.Context,
	doc *domain.Document,
	collection string,
	extra map[string]string,
) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, nil
	}

	var (
		chunks  []domain.Chunk
		path    []string
		current string
	)

	for i := range doc.Elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		el := &doc.Elements[i]
		text := strings.TrimSpace(el.Text)

		switch el.Type {
		case domain.ElementPageBreak:
			continue
		case domain.ElementTitle:
			if text == "" {
				continue
			}
			current = text
			path = []string{text}
			continue
		case domain.ElementHeader:
			if text == "" {
				continue
			}
			current = text
			path = append(path[:len(path):len(path)], text)
			continue
		}

		base := domain.Chunk{
			DocumentID:     doc.ID,
			SourceFile:     doc.Filename,
			SectionPath:    append([]string(nil), path...),
			SectionHeader:  current,
			PageNumber:     el.PageNumber,
			ElementType:    el.Type,
			ElementID:      elementKey(el, i),
			ChunkIndex:     -1,
			CollectionType: collection,
			Extra:          mergeExtra(extra, el),
		}

		if el.Type == domain.ElementTable {
			if c, ok := tableChunk(base, el, current); ok {
				chunks = append(chunks, c)
			}
			continue
		}

		if text == "" {
			continue
		}

		body := text
		if current != "" {
			body = "[Section: " + current + "]\n" + text
		}

		if len([]rune(body)) <= p.chunkSize {
			c := base
			c.ID = ChunkID(doc.ID, base.ElementID, -1)
			c.Text = body
			chunks = append(chunks, c)
			continue
		}

		for j, piece := range p.splitter.Split(body) {
			c := base
			c.ID = ChunkID(doc.ID, base.ElementID, j)
			c.Text = piece
			c.ChunkIndex = j
			c.Extra = copyExtra(base.Extra)
			c.SectionPath = append([]string(nil), base.SectionPath...)
			chunks = append(chunks, c)
		}
	}

	return chunks, nil
}

// tableChunk builds the single chunk for a table element.
// Markup that holds no parseable table degrades to the raw text with an
// empty HTML field.
func tableChunk(base domain.Chunk, el *domain.Element, header string) (domain.Chunk, bool) {
	body := strings.TrimSpace(el.Text)
	markup := el.HTML

	if markup != "" {
		rendered, err := htmltext.TableText(markup)
		switch {
		case err != nil:
			markup = ""
			if body == "" {
				body = strings.TrimSpace(el.HTML)
			}
		case body == "":
			body = rendered
		}
	}

	if body == "" {
		return domain.Chunk{}, false
	}

	if header != "" {
		body = "[Table in section: " + header + "]\n" + body
	}

	c := base
	c.ID = TableChunkID(base.DocumentID, base.ElementID)
	c.Text = body
	c.HasTable = true
	c.TableHTML = markup
	return c, true
}

// ChunkID returns the deterministic id of a narrative chunk.
// index is -1 for an element kept whole.
func ChunkID(documentID, elementID string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"/"+elementID+"/"+strconv.Itoa(index))).String()
}

// TableChunkID returns the deterministic id of a table chunk.
func TableChunkID(documentID, elementID string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"/"+elementID+"/tbl")).String()
}

// elementKey identifies an element within its document. Elements without
// an extractor id fall back to their position.
func elementKey(el *domain.Element, pos int) string {
	if el.ID != "" {
		return el.ID
	}
	return fmt.Sprintf("pos-%d", pos)
}

func mergeExtra(extra map[string]string, el *domain.Element) map[string]string {
	out := copyExtra(extra)
	if el.Metadata.FinancialStatementType != "" {
		if out == nil {
			out = make(map[string]string, 1)
		}
		out["financial_statement_type"] = el.Metadata.FinancialStatementType
	}
	return out
}

func copyExtra(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
