package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

func seed(t *testing.T) *Index {
	t.Helper()
	idx := NewIndex()
	err := idx.Upsert(context.Background(), "rules", []driven.VectorRecord{
		{ID: "a", Text: "lease disclosure", Vector: []float32{1, 0}, Metadata: map[string]string{"framework": "IndAS", "source_file": "Ind AS 116.pdf"}},
		{ID: "b", Text: "balance sheet format", Vector: []float32{0, 1}, Metadata: map[string]string{"framework": "Schedule_III"}},
		{ID: "c", Text: "related party", Vector: []float32{0.9, 0.1}, Metadata: map[string]string{"framework": "IndAS"}},
	})
	require.NoError(t, err)
	return idx
}

func TestIndex_SearchOrdersByDistance(t *testing.T) {
	idx := seed(t)

	hits, err := idx.Search(context.Background(), driven.SearchQuery{Collection: "rules", Vector: []float32{1, 0}, K: 2})

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-9)
}

func TestIndex_SearchFilters(t *testing.T) {
	idx := seed(t)
	ctx := context.Background()

	hits, err := idx.Search(ctx, driven.SearchQuery{
		Collection: "rules", Vector: []float32{0, 1}, K: 5,
		Filter: &driven.MetadataFilter{Field: "framework", Op: driven.FilterEqual, Value: "IndAS"},
	})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = idx.Search(ctx, driven.SearchQuery{
		Collection: "rules", Vector: []float32{0, 1}, K: 5,
		Filter: &driven.MetadataFilter{Field: "source_file", Op: driven.FilterContains, Value: "ind as 116"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestIndex_UpsertReplaces(t *testing.T) {
	idx := seed(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "rules", []driven.VectorRecord{{ID: "a", Text: "updated", Vector: []float32{1, 0}}}))

	n, err := idx.Count(ctx, "rules")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := idx.Search(ctx, driven.SearchQuery{Collection: "rules", Vector: []float32{1, 0}, K: 1})
	require.NoError(t, err)
	assert.Equal(t, "updated", hits[0].Text)
}

func TestIndex_CountMissingCollection(t *testing.T) {
	n, err := NewIndex().Count(context.Background(), "nothing")

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_UpsertRequiresID(t *testing.T) {
	err := NewIndex().Upsert(context.Background(), "rules", []driven.VectorRecord{{Text: "x"}})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestIndex_Closed(t *testing.T) {
	idx := seed(t)
	require.NoError(t, idx.Close())

	_, err := idx.Count(context.Background(), "rules")
	assert.True(t, errors.Is(err, domain.ErrVectorIndexUnavailable))
	_, err = idx.Search(context.Background(), driven.SearchQuery{Collection: "rules"})
	assert.True(t, errors.Is(err, domain.ErrVectorIndexUnavailable))
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, cosineDistance([]float32{1, 1}, []float32{2, 2}), 1e-9)
	assert.InDelta(t, 1, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 2.0, cosineDistance([]float32{1}, []float32{1, 0}))
	assert.Equal(t, 2.0, cosineDistance([]float32{0, 0}, []float32{1, 0}))
}
