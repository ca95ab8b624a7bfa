// Package memory provides an in-process vector index used by tests and
// for dry runs without a Weaviate instance.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a brute-force cosine-distance vector index.
type Index struct {
	mu          sync.RWMutex
	collections map[string]map[string]driven.VectorRecord
	closed      bool
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{collections: make(map[string]map[string]driven.VectorRecord)}
}

// Upsert inserts or replaces records keyed by ID.
func (x *Index) Upsert(_ context.Context, collection string, records []driven.VectorRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return domain.ErrVectorIndexUnavailable
	}
	coll, ok := x.collections[collection]
	if !ok {
		coll = make(map[string]driven.VectorRecord)
		x.collections[collection] = coll
	}
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record id is required", domain.ErrInvalidInput)
		}
		meta := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		r.Metadata = meta
		r.Vector = append([]float32(nil), r.Vector...)
		coll[r.ID] = r
	}
	return nil
}

// Search returns the K records closest to the query vector.
func (x *Index) Search(ctx context.Context, q driven.SearchQuery) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, domain.ErrVectorIndexUnavailable
	}

	var hits []driven.VectorHit
	for _, r := range x.collections[q.Collection] {
		if q.Filter != nil && !q.Filter.Matches(r.Metadata) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Distance: cosineDistance(q.Vector, r.Vector),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if q.K > 0 && len(hits) > q.K {
		hits = hits[:q.K]
	}
	return hits, nil
}

// Count returns the number of records in a collection.
func (x *Index) Count(_ context.Context, collection string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return 0, domain.ErrVectorIndexUnavailable
	}
	return len(x.collections[collection]), nil
}

// Close marks the index unusable.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	return nil
}

// cosineDistance returns 1 - cos(a, b). Mismatched or zero vectors are
// maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
