package driven

import (
	"context"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// DocumentStore persists processed documents and their chunks.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document with its elements and tables.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound for unknown ids.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// UpdateStatus changes a document's status and its last-report fields.
	// Returns domain.ErrNotFound for unknown ids.
	UpdateStatus(ctx context.Context, id string, update domain.DocumentStatusUpdate) error

	// ListDocuments returns all stored documents without their elements.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// SaveChunks stores chunks, replacing any with the same ID.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document in chunking order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}
