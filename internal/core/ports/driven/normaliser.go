package driven

import (
	"context"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// Normaliser turns the bytes of a file into a structured document.
// Each normaliser handles specific MIME types (e.g., partitioner JSON, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Structured formats should return 90-100.
	// Generic MIME normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise converts a raw document into elements and tables.
	// Chunking is handled separately by the Chunker.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
