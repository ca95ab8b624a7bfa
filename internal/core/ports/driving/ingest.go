package driving

import (
	"context"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// IngestService indexes documents for retrieval.
type IngestService interface {
	// Ingest chunks, embeds and indexes a processed document as evidence,
	// then stores it. Re-ingesting the same document is idempotent.
	// Returns the number of chunks indexed.
	Ingest(ctx context.Context, doc *domain.Document) (int, error)

	// IngestRules indexes a regulatory source document into the collection
	// of the named rule-set, tagging each chunk with the rule-set name.
	IngestRules(ctx context.Context, ruleSet string, doc *domain.Document) (int, error)
}
