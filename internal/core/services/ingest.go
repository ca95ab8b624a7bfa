package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-comply/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// embedBatchSize is the number of chunks embedded per provider call.
const embedBatchSize = 100

// IngestService chunks, embeds and indexes documents.
type IngestService struct {
	docs       driven.DocumentStore
	chunker    driven.Chunker
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	catalog    *RuleSetCatalog
	collection string
	now        func() time.Time
}

// NewIngestService creates an ingest service writing evidence chunks to
// collection. docs may be nil when only rule sources are ingested.
func NewIngestService(
	docs driven.DocumentStore,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	catalog *RuleSetCatalog,
	collection string,
) *IngestService {
	if catalog == nil {
		catalog = NewRuleSetCatalog(domain.DefaultRuleSets())
	}
	if collection == "" {
		collection = domain.CollectionFinancialDocuments
	}
	return &IngestService{
		docs:       docs,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		catalog:    catalog,
		collection: collection,
		now:        time.Now,
	}
}

// Ingest indexes doc as evidence, stores its chunks and saves the
// document with status processed.
func (s *IngestService) Ingest(ctx context.Context, doc *domain.Document) (int, error) {
	if doc == nil || doc.ID == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if s.docs == nil {
		return 0, fmt.Errorf("%w: no document store", domain.ErrInvalidConfig)
	}

	chunks, err := s.indexChunks(ctx, doc, s.collection, nil)
	if err != nil {
		return 0, err
	}

	if err := s.docs.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("save chunks: %w", err)
	}

	now := s.now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	doc.Status = domain.StatusProcessed
	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("save document: %w", err)
	}

	logger.Info("Ingested %s: %d chunks into %s", doc.Filename, len(chunks), s.collection)
	return len(chunks), nil
}

// IngestRules indexes a regulatory source into the rule-set's collection.
// Each chunk is tagged with the rule-set name so filtered retrieval finds it.
func (s *IngestService) IngestRules(ctx context.Context, ruleSet string, doc *domain.Document) (int, error) {
	ruleSet = strings.TrimSpace(ruleSet)
	if ruleSet == "" {
		return 0, fmt.Errorf("%w: rule-set name is required", domain.ErrInvalidInput)
	}
	if doc == nil || doc.ID == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	rs := s.catalog.Resolve(ruleSet)
	extra := map[string]string{driven.MetaFramework: ruleSet}
	if name := doc.Metadata.Extra[driven.MetaStandardName]; name != "" {
		extra[driven.MetaStandardName] = name
	}

	chunks, err := s.indexChunks(ctx, doc, rs.Collection, extra)
	if err != nil {
		return 0, err
	}
	logger.Info("Ingested %s: %d chunks into %s for %s", doc.Filename, len(chunks), rs.Collection, ruleSet)
	return len(chunks), nil
}

// indexChunks chunks doc, embeds the chunks batch by batch and upserts them
// keyed by chunk id.
func (s *IngestService) indexChunks(
	ctx context.Context, doc *domain.Document, collection string, extra map[string]string,
) ([]domain.Chunk, error) {
	if s.chunker == nil || s.embedder == nil || s.index == nil {
		return nil, fmt.Errorf("%w: ingest needs a chunker, an embedder and an index", domain.ErrInvalidConfig)
	}

	chunks, err := s.chunker.Chunk(ctx, doc, collection, extra)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoContent, doc.ID)
	}
	logger.Debug("Chunked %s with %s: %d chunks", doc.ID, s.chunker.Name(), len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
				domain.ErrEmbeddingUnavailable, len(vectors), len(batch))
		}

		records := make([]driven.VectorRecord, len(batch))
		for i := range batch {
			records[i] = driven.VectorRecord{
				ID:       batch[i].ID,
				Text:     batch[i].Text,
				Vector:   vectors[i],
				Metadata: chunkMetadata(&batch[i]),
			}
		}
		if err := s.index.Upsert(ctx, collection, records); err != nil {
			return nil, fmt.Errorf("upsert into %s: %w", collection, err)
		}
		logger.Debug("Indexed chunks %d-%d of %d", start+1, end, len(chunks))
	}
	return chunks, nil
}

// chunkMetadata flattens a chunk into vector record metadata.
func chunkMetadata(c *domain.Chunk) map[string]string {
	meta := make(map[string]string, len(c.Extra)+9)
	for k, v := range c.Extra {
		meta[k] = v
	}
	meta[driven.MetaDocumentID] = c.DocumentID
	meta[driven.MetaSourceFile] = c.SourceFile
	meta[driven.MetaPageNumber] = strconv.Itoa(c.PageNumber)
	meta[driven.MetaElementType] = string(c.ElementType)
	meta[driven.MetaSectionPath] = c.SectionPathString()
	meta[driven.MetaSectionHeader] = c.SectionHeader
	meta[driven.MetaHasTable] = strconv.FormatBool(c.HasTable)
	meta[driven.MetaChunkIndex] = strconv.Itoa(c.ChunkIndex)
	return meta
}
