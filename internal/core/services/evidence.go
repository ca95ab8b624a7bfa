package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/logger"
)

const (
	evidenceQueryChars = 1000
	evidenceMaxChars   = 4000
	evidenceSeparator  = "\n\n---\n\n"
)

// EvidenceFinder finds the passages of a document most relevant to a rule.
type EvidenceFinder interface {
	Locate(ctx context.Context, ruleText string, doc *domain.Document) (domain.Evidence, error)
}

// Ensure EvidenceLocator implements the interface.
var _ EvidenceFinder = (*EvidenceLocator)(nil)

// EvidenceLocator searches the ingested chunks of the assessed document.
type EvidenceLocator struct {
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	collection string
	topK       int
}

// NewEvidenceLocator creates a locator over collection.
func NewEvidenceLocator(
	embedder driven.EmbeddingService, index driven.VectorIndex, collection string, topK int,
) *EvidenceLocator {
	if collection == "" {
		collection = domain.CollectionFinancialDocuments
	}
	if topK <= 0 {
		topK = domain.DefaultEngineSettings().TopK
	}
	return &EvidenceLocator{embedder: embedder, index: index, collection: collection, topK: topK}
}

// Locate returns the joined excerpts most similar to ruleText. Search is
// restricted to chunks whose source file contains the document's file
// stem, falling back to an unfiltered search. The returned evidence is
// always usable; the error only explains why it is empty.
func (l *EvidenceLocator) Locate(
	ctx context.Context, ruleText string, doc *domain.Document,
) (domain.Evidence, error) {
	n, err := l.index.Count(ctx, l.collection)
	if err != nil {
		return domain.Evidence{}, fmt.Errorf("count %s: %w", l.collection, err)
	}
	if n == 0 {
		return domain.Evidence{}, domain.ErrEmptyIndex
	}

	vec, err := l.embedder.Embed(ctx, truncateRunes(ruleText, evidenceQueryChars))
	if err != nil {
		return domain.Evidence{}, fmt.Errorf("embed rule: %w", err)
	}
	if len(vec) == 0 {
		return domain.Evidence{}, domain.ErrNoContent
	}

	query := driven.SearchQuery{Collection: l.collection, Vector: vec, K: l.topK}
	if doc != nil {
		if stem := strings.ReplaceAll(doc.Filename, ".pdf", ""); stem != "" {
			query.Filter = &driven.MetadataFilter{
				Field: driven.MetaSourceFile, Op: driven.FilterContains, Value: stem,
			}
		}
	}

	hits, err := l.index.Search(ctx, query)
	if err != nil && query.Filter != nil {
		logger.Debug("Filtered evidence search failed, retrying unfiltered: %v", err)
		query.Filter = nil
		hits, err = l.index.Search(ctx, query)
	}
	if err != nil {
		return domain.Evidence{}, fmt.Errorf("search evidence: %w", err)
	}

	var (
		excerpts []string
		pages    []string
	)
	seenPage := make(map[string]struct{})
	for _, h := range hits {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		excerpts = append(excerpts, h.Text)
		if p := h.Metadata[driven.MetaPageNumber]; p != "" && p != "0" {
			if _, ok := seenPage[p]; !ok {
				seenPage[p] = struct{}{}
				pages = append(pages, "p."+p)
			}
		}
	}
	if len(excerpts) == 0 {
		return domain.Evidence{}, domain.ErrNoContent
	}

	return domain.Evidence{
		Excerpt:  truncateRunes(strings.Join(excerpts, evidenceSeparator), evidenceMaxChars),
		Location: strings.Join(pages, ", "),
	}, nil
}
