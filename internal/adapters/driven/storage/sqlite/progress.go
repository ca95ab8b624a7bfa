package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// progressStore implements driven.ProgressStore over compliance_progress.
type progressStore struct {
	store *Store
}

var _ driven.ProgressStore = (*progressStore)(nil)

// SaveProgress creates or replaces the record for a job.
func (s *progressStore) SaveProgress(ctx context.Context, record domain.ProgressRecord) error {
	if record.JobID == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrInvalidInput)
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO compliance_progress (job_id, document_id, status, progress_pct, step, report_id, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			document_id = excluded.document_id,
			status = excluded.status,
			progress_pct = excluded.progress_pct,
			step = excluded.step,
			report_id = excluded.report_id,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, record.JobID, record.DocumentID, string(record.Status), record.Percent, record.Step,
		record.ReportID, record.Error, record.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

// GetProgress retrieves the record for a job.
func (s *progressStore) GetProgress(ctx context.Context, jobID string) (*domain.ProgressRecord, error) {
	var (
		record domain.ProgressRecord
		status string
	)
	err := s.store.db.QueryRowContext(ctx, `
		SELECT job_id, document_id, status, progress_pct, step, report_id, error, updated_at
		FROM compliance_progress WHERE job_id = ?
	`, jobID).Scan(&record.JobID, &record.DocumentID, &status, &record.Percent, &record.Step,
		&record.ReportID, &record.Error, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("progress %s: %w", jobID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("querying progress: %w", err)
	}

	record.Status = domain.ProgressStatus(status)
	return &record, nil
}
