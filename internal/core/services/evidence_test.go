package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vectormem "github.com/custodia-labs/sercha-comply/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

func evidenceIndex(t *testing.T) *vectormem.Index {
	t.Helper()
	idx := vectormem.NewIndex()
	err := idx.Upsert(context.Background(), domain.CollectionFinancialDocuments, []driven.VectorRecord{
		{ID: "e1", Text: "Related party transactions are disclosed in Note 32.", Vector: []float32{1, 0, 0},
			Metadata: map[string]string{"source_file": "Acme Annual Report.pdf", "page_number": "41"}},
		{ID: "e2", Text: "Leases are accounted for under Ind AS 116.", Vector: []float32{0.9, 0.1, 0},
			Metadata: map[string]string{"source_file": "Acme Annual Report.pdf", "page_number": "41"}},
		{ID: "e3", Text: "Segment information.", Vector: []float32{0.7, 0.3, 0},
			Metadata: map[string]string{"source_file": "Acme Annual Report.pdf", "page_number": "52"}},
		{ID: "o1", Text: "Another company's text.", Vector: []float32{1, 0, 0},
			Metadata: map[string]string{"source_file": "Other Corp.pdf", "page_number": "3"}},
	})
	require.NoError(t, err)
	return idx
}

func TestEvidenceLocator_FiltersToDocument(t *testing.T) {
	l := NewEvidenceLocator(&mockEmbedder{}, evidenceIndex(t), "", 8)
	doc := &domain.Document{ID: "doc-1", Filename: "Acme Annual Report.pdf"}

	ev, err := l.Locate(context.Background(), "related party disclosure", doc)

	require.NoError(t, err)
	assert.NotContains(t, ev.Excerpt, "Another company")
	assert.Equal(t, 3, strings.Count(ev.Excerpt, "\n\n---\n\n")+1)
	assert.Equal(t, "p.41, p.52", ev.Location)
}

func TestEvidenceLocator_RetriesUnfiltered(t *testing.T) {
	idx := &failingIndex{VectorIndex: evidenceIndex(t), failFiltered: true}
	l := NewEvidenceLocator(&mockEmbedder{}, idx, domain.CollectionFinancialDocuments, 8)

	ev, err := l.Locate(context.Background(), "rule", &domain.Document{Filename: "Acme Annual Report.pdf"})

	require.NoError(t, err)
	assert.Contains(t, ev.Excerpt, "Another company")
	assert.Equal(t, int32(2), idx.searches.Load())
}

func TestEvidenceLocator_EmptyIndex(t *testing.T) {
	l := NewEvidenceLocator(&mockEmbedder{}, vectormem.NewIndex(), "", 8)

	ev, err := l.Locate(context.Background(), "rule", &domain.Document{Filename: "a.pdf"})

	assert.True(t, errors.Is(err, domain.ErrEmptyIndex))
	assert.Empty(t, ev.Excerpt)
}

func TestEvidenceLocator_TruncatesQueryAndExcerpt(t *testing.T) {
	var seen string
	embedder := &mockEmbedder{embed: func(text string) ([]float32, error) {
		seen = text
		return []float32{1, 0, 0}, nil
	}}
	idx := vectormem.NewIndex()
	var records []driven.VectorRecord
	for _, id := range []string{"a", "b", "c"} {
		records = append(records, driven.VectorRecord{ID: id, Text: strings.Repeat(id, 3000), Vector: []float32{1, 0, 0}})
	}
	require.NoError(t, idx.Upsert(context.Background(), domain.CollectionFinancialDocuments, records))
	l := NewEvidenceLocator(embedder, idx, "", 8)

	ev, err := l.Locate(context.Background(), strings.Repeat("r", 1500), nil)

	require.NoError(t, err)
	assert.Len(t, seen, 1000)
	assert.Len(t, ev.Excerpt, 4000)
	assert.Empty(t, ev.Location)
}

func TestEvidenceLocator_Errors(t *testing.T) {
	idx := evidenceIndex(t)

	failing := NewEvidenceLocator(&mockEmbedder{embed: func(string) ([]float32, error) {
		return nil, domain.ErrEmbeddingUnavailable
	}}, idx, "", 8)
	_, err := failing.Locate(context.Background(), "rule", nil)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))

	down := NewEvidenceLocator(&mockEmbedder{}, &failingIndex{VectorIndex: idx, failAll: true}, "", 8)
	_, err = down.Locate(context.Background(), "rule", nil)
	assert.True(t, errors.Is(err, domain.ErrVectorIndexUnavailable))
}
