package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages processed documents.
type DocumentService struct {
	docStore driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore) *DocumentService {
	return &DocumentService{docStore: docStore}
}

// List returns all stored documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// GetDetails returns the decomposed view of a document for display.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	// Chunk lookup is best effort; a document may not be ingested yet.
	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		chunks = nil
	}

	sections := decomposeDocument(doc, chunks)
	return &driving.DocumentDetails{
		ID:           doc.ID,
		Filename:     doc.Filename,
		Status:       doc.Status,
		Company:      doc.Metadata.Company,
		FiscalYear:   doc.Metadata.FiscalYear,
		Type:         domain.DetectDocumentType(doc.Filename, sections),
		Sections:     domain.SectionNames(sections),
		ElementCount: len(doc.Elements),
		TableCount:   len(doc.Tables),
		ChunkCount:   len(chunks),
		LastReportID: doc.LastReportID,
		LastScore:    doc.LastScore,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

// Delete removes a document and its chunks.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.Get(ctx, documentID); err != nil {
		return err
	}
	return s.docStore.DeleteDocument(ctx, documentID)
}
