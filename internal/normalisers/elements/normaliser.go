// Package elements loads documents from the JSON output of a layout
// partitioner.
//
// Two shapes are accepted. A JSON array is read as partitioner elements,
// each with a type, an element_id, text and a metadata object carrying
// page_number and text_as_html. A JSON object is read as a complete
// processed document, as exported by the document store.
package elements

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/assemble"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles partitioner JSON.
type Normaliser struct{}

// New creates a new elements normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/json"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 95 // Structured extractor output
}

// partitionElement is one element as emitted by the partitioner.
type partitionElement struct {
	Type      string            `json:"type"`
	ElementID string            `json:"element_id"`
	Text      string            `json:"text"`
	Metadata  partitionMetadata `json:"metadata"`
}

type partitionMetadata struct {
	PageNumber int    `json:"page_number"`
	TextAsHTML string `json:"text_as_html"`
	Filename   string `json:"filename"`
	ParentID   string `json:"parent_id"`
	Section    string `json:"section"`
}

// Normalise decodes the JSON content into a document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := bytes.TrimSpace(raw.Content)
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrNoContent)
	}

	switch content[0] {
	case '[':
		var parts []partitionElement
		if err := json.Unmarshal(content, &parts); err != nil {
			return nil, fmt.Errorf("%w: decode elements: %v", domain.ErrInvalidInput, err)
		}
		return assemble.Document(raw, convert(parts)), nil
	case '{':
		var doc domain.Document
		if err := json.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode document: %v", domain.ErrInvalidInput, err)
		}
		if raw.ID != "" {
			doc.ID = raw.ID
		}
		return assemble.Complete(raw, &doc), nil
	default:
		return nil, fmt.Errorf("%w: expected a JSON array or object", domain.ErrInvalidInput)
	}
}

func convert(parts []partitionElement) []domain.Element {
	out := make([]domain.Element, 0, len(parts))
	for _, p := range parts {
		el := domain.Element{
			ID:         p.ElementID,
			Type:       elementType(p.Type),
			Text:       p.Text,
			PageNumber: p.Metadata.PageNumber,
			Metadata:   domain.ElementMetadata{Filename: p.Metadata.Filename},
		}
		if el.Type == domain.ElementTable {
			el.HTML = p.Metadata.TextAsHTML
		}

		extra := map[string]string{}
		if p.Metadata.ParentID != "" {
			extra["parent_id"] = p.Metadata.ParentID
		}
		if p.Metadata.Section != "" {
			extra["section"] = p.Metadata.Section
		}
		if len(extra) > 0 {
			el.Metadata.Extra = extra
		}
		out = append(out, el)
	}
	return out
}

// elementType maps partitioner type names onto the element kinds the
// chunker understands.
func elementType(name string) domain.ElementType {
	switch strings.TrimSpace(name) {
	case "Title":
		return domain.ElementTitle
	case "Header":
		return domain.ElementHeader
	case "Table":
		return domain.ElementTable
	case "PageBreak":
		return domain.ElementPageBreak
	case "ListItem":
		return domain.ElementListItem
	case "NarrativeText", "Text", "UncategorizedText", "CompositeElement",
		"FigureCaption", "Formula", "Address", "EmailAddress":
		return domain.ElementNarrative
	default:
		return domain.ElementOther
	}
}
