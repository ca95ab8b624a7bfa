package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// DocumentService manages processed documents.
type DocumentService interface {
	// List returns all stored documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetDetails returns a display view of a document.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, documentID string) error
}

// DocumentDetails provides a standardised view of document metadata.
type DocumentDetails struct {
	// ID is the unique document identifier.
	ID string

	// Filename is the original upload name.
	Filename string

	// Status is the processing/validation status.
	Status domain.DocumentStatus

	// Company and FiscalYear are the reporting labels, if known.
	Company    string
	FiscalYear string

	// Type is the detected document type.
	Type domain.DocumentType

	// Sections lists the decomposed section names.
	Sections []string

	// ElementCount, TableCount and ChunkCount size the document.
	ElementCount int
	TableCount   int
	ChunkCount   int

	// LastReportID and LastScore describe the latest compliance report.
	LastReportID string
	LastScore    *float64

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time
}
