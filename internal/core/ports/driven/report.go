package driven

import (
	"context"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// ReportStore persists compliance reports.
// The store is append-only: the core never updates a stored report.
type ReportStore interface {
	// InsertReport stores a new report and returns its ID.
	// Returns domain.ErrDuplicateReport if the ID already exists.
	InsertReport(ctx context.Context, report *domain.ComplianceReport) (string, error)

	// GetReport retrieves a report by ID.
	// Returns domain.ErrNotFound for unknown ids.
	GetReport(ctx context.Context, id string) (*domain.ComplianceReport, error)

	// ListReports returns summaries of the reports for a document, newest first.
	// An empty documentID lists all reports.
	ListReports(ctx context.Context, documentID string) ([]domain.ReportSummary, error)
}
