package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driving"
)

// Ensure ReportService implements the interface.
var _ driving.ReportService = (*ReportService)(nil)

// ReportService reads stored reports and job progress.
type ReportService struct {
	reports  driven.ReportStore
	progress driven.ProgressStore
}

// NewReportService creates a new report service.
func NewReportService(reports driven.ReportStore, progress driven.ProgressStore) *ReportService {
	return &ReportService{reports: reports, progress: progress}
}

// Get retrieves a report by ID.
func (s *ReportService) Get(ctx context.Context, id string) (*domain.ComplianceReport, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: report id is required", domain.ErrInvalidInput)
	}
	return s.reports.GetReport(ctx, id)
}

// List returns report summaries for a document, newest first.
func (s *ReportService) List(ctx context.Context, documentID string) ([]domain.ReportSummary, error) {
	return s.reports.ListReports(ctx, documentID)
}

// Progress returns the progress record of a job.
func (s *ReportService) Progress(ctx context.Context, jobID string) (*domain.ProgressRecord, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("%w: job id is required", domain.ErrInvalidInput)
	}
	if s.progress == nil {
		return nil, domain.ErrNotFound
	}
	return s.progress.GetProgress(ctx, jobID)
}
