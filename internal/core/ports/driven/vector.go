package driven

import (
	"context"
	"strings"
)

// VectorIndex stores embedded records in named collections and runs
// filtered similarity search over them. Backed by Weaviate.
type VectorIndex interface {
	// Upsert inserts or replaces records in a collection, keyed by record ID.
	Upsert(ctx context.Context, collection string, records []VectorRecord) error

	// Search finds the K nearest records to the query vector.
	// Hits are ordered by ascending distance. An error from a filtered
	// search must leave the index usable for an unfiltered retry.
	Search(ctx context.Context, query SearchQuery) ([]VectorHit, error)

	// Count returns the number of records in a collection.
	// A collection that does not exist counts as zero.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases resources.
	Close() error
}

// VectorRecord is an embedded unit of text with its metadata.
type VectorRecord struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// FilterOp is a metadata filter comparison.
type FilterOp string

// Filter operators.
const (
	// FilterEqual matches the exact value.
	FilterEqual FilterOp = "equal"

	// FilterContains matches values containing the given substring.
	FilterContains FilterOp = "contains"
)

// MetadataFilter restricts a search to records whose metadata matches.
type MetadataFilter struct {
	Field string
	Op    FilterOp
	Value string
}

// Matches reports whether metadata satisfies the filter.
// Used by in-process index implementations.
func (f MetadataFilter) Matches(metadata map[string]string) bool {
	v, ok := metadata[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case FilterContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(f.Value))
	default:
		return v == f.Value
	}
}

// SearchQuery describes a similarity search.
type SearchQuery struct {
	// Collection is the collection to search.
	Collection string

	// Vector is the query embedding.
	Vector []float32

	// K is the maximum number of hits.
	K int

	// Filter optionally restricts the search. Nil means unfiltered.
	Filter *MetadataFilter
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched record.
	ID string

	// Text is the record body.
	Text string

	// Metadata holds the record attributes.
	Metadata map[string]string

	// Distance is the similarity distance, lower is closer.
	Distance float64
}

// Well-known record metadata keys.
const (
	MetaDocumentID    = "document_id"
	MetaSourceFile    = "source_file"
	MetaPageNumber    = "page_number"
	MetaElementType   = "element_type"
	MetaSectionPath   = "section_path"
	MetaSectionHeader = "section_header"
	MetaFramework     = "framework"
	MetaStandardName  = "standard_name"
	MetaHasTable      = "has_table"
	MetaChunkIndex    = "chunk_index"
)
