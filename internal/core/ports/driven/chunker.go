package driven

import (
	"context"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// Chunker turns a processed document into retrieval-ready chunks.
type Chunker interface {
	// Name returns the chunker name.
	Name() string

	// Chunk splits the document's elements into chunks destined for collection.
	// extra is copied into every chunk. Malformed input never errors;
	// the error return is reserved for cancellation.
	Chunk(ctx context.Context, doc *domain.Document, collection string, extra map[string]string) ([]domain.Chunk, error)
}
