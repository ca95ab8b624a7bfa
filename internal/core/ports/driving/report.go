package driving

import (
	"context"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// ReportService reads stored reports and progress.
type ReportService interface {
	// Get retrieves a report by ID.
	Get(ctx context.Context, id string) (*domain.ComplianceReport, error)

	// List returns report summaries for a document, newest first.
	// An empty documentID lists all reports.
	List(ctx context.Context, documentID string) ([]domain.ReportSummary, error)

	// Progress returns the progress record of a job.
	Progress(ctx context.Context, jobID string) (*domain.ProgressRecord, error)
}
