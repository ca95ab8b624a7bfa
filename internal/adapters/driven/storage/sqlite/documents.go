package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, filename, status, metadata, elements, tables,
	last_report_id, last_score, created_at, updated_at`

// SaveDocument stores or updates a document with its elements and tables.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	elementsJSON, err := json.Marshal(doc.Elements)
	if err != nil {
		return fmt.Errorf("marshalling elements: %w", err)
	}
	tablesJSON, err := json.Marshal(doc.Tables)
	if err != nil {
		return fmt.Errorf("marshalling tables: %w", err)
	}

	now := time.Now().UTC()
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	status := doc.Status
	if status == "" {
		status = domain.StatusUploaded
	}

	var lastScore sql.NullFloat64
	if doc.LastScore != nil {
		lastScore = sql.NullFloat64{Float64: *doc.LastScore, Valid: true}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, status, company, fiscal_year, metadata, elements, tables,
			last_report_id, last_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			status = excluded.status,
			company = excluded.company,
			fiscal_year = excluded.fiscal_year,
			metadata = excluded.metadata,
			elements = excluded.elements,
			tables = excluded.tables,
			last_report_id = excluded.last_report_id,
			last_score = excluded.last_score,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Filename, string(status), doc.Metadata.Company, doc.Metadata.FiscalYear,
		string(metadataJSON), string(elementsJSON), string(tablesJSON),
		doc.LastReportID, lastScore, createdAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, err
}

// UpdateStatus changes a document's status and last-report fields.
// Empty report id and nil score leave the stored values in place.
func (s *documentStore) UpdateStatus(ctx context.Context, id string, update domain.DocumentStatusUpdate) error {
	var lastScore sql.NullFloat64
	if update.LastScore != nil {
		lastScore = sql.NullFloat64{Float64: *update.LastScore, Valid: true}
	}

	result, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET
			status = ?,
			last_report_id = CASE WHEN ? = '' THEN last_report_id ELSE ? END,
			last_score = COALESCE(?, last_score),
			updated_at = ?
		WHERE id = ?
	`, string(update.Status), update.LastReportID, update.LastReportID, lastScore, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListDocuments returns all documents without elements or tables,
// most recently updated first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, status, metadata, '[]', '[]', last_report_id, last_score, created_at, updated_at
		FROM documents
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		doc.Elements = nil
		doc.Tables = nil
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document; chunks go with it by cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks, replacing any with the same ID. A replaced
// chunk keeps its original position.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, data)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM chunks WHERE document_id = ?), ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			data = excluded.data
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		data, err := json.Marshal(chunks[i])
		if err != nil {
			return fmt.Errorf("marshalling chunk: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, chunks[i].ID, chunks[i].DocumentID, chunks[i].DocumentID, string(data)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunks[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document in chunking order.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT data FROM chunks WHERE document_id = ? ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		var chunk domain.Chunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var (
		doc                      domain.Document
		status                   string
		metadataJSON             string
		elementsJSON, tablesJSON string
		lastScore                sql.NullFloat64
	)

	if err := row.Scan(&doc.ID, &doc.Filename, &status, &metadataJSON, &elementsJSON, &tablesJSON,
		&doc.LastReportID, &lastScore, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if lastScore.Valid {
		score := lastScore.Float64
		doc.LastScore = &score
	}

	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(elementsJSON), &doc.Elements); err != nil {
		return nil, fmt.Errorf("unmarshalling elements: %w", err)
	}
	if err := json.Unmarshal([]byte(tablesJSON), &doc.Tables); err != nil {
		return nil, fmt.Errorf("unmarshalling tables: %w", err)
	}

	return &doc, nil
}
