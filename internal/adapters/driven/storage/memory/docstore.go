package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = cloneDocument(doc)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	out := cloneDocument(&doc)
	return &out, nil
}

// UpdateStatus changes a document's status and last-report fields.
func (s *DocumentStore) UpdateStatus(_ context.Context, id string, update domain.DocumentStatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	doc.Status = update.Status
	if update.LastReportID != "" {
		doc.LastReportID = update.LastReportID
	}
	if update.LastScore != nil {
		score := *update.LastScore
		doc.LastScore = &score
	}
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// ListDocuments returns all documents without their elements,
// most recently updated first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		doc := s.documents[id]
		doc.Elements = nil
		doc.Tables = nil
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// SaveChunks stores chunks, replacing any with the same ID.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range chunks {
		c := chunks[i]
		existing := s.chunks[c.DocumentID]
		replaced := false
		for j := range existing {
			if existing[j].ID == c.ID {
				existing[j] = c
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, c)
		}
		s.chunks[c.DocumentID] = existing
	}
	return nil
}

// GetChunks retrieves all chunks for a document in chunking order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := s.chunks[documentID]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

func cloneDocument(doc *domain.Document) domain.Document {
	out := *doc
	out.Elements = append([]domain.Element(nil), doc.Elements...)
	out.Tables = append([]domain.Table(nil), doc.Tables...)
	if doc.LastScore != nil {
		score := *doc.LastScore
		out.LastScore = &score
	}
	return out
}
