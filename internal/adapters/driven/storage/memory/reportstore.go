package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// Ensure ReportStore implements the interface.
var _ driven.ReportStore = (*ReportStore)(nil)

// ReportStore is an append-only in-memory implementation of driven.ReportStore.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]domain.ComplianceReport
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string]domain.ComplianceReport)}
}

// InsertReport stores a new report. An empty ID is assigned a UUID.
func (s *ReportStore) InsertReport(_ context.Context, report *domain.ComplianceReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("%w: nil report", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if _, exists := s.reports[report.ID]; exists {
		return "", fmt.Errorf("report %s: %w", report.ID, domain.ErrDuplicateReport)
	}
	s.reports[report.ID] = cloneReport(report)
	return report.ID, nil
}

// GetReport retrieves a report by ID.
func (s *ReportStore) GetReport(_ context.Context, id string) (*domain.ComplianceReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
	}
	out := cloneReport(&r)
	return &out, nil
}

// ListReports returns report summaries, newest first.
func (s *ReportStore) ListReports(_ context.Context, documentID string) ([]domain.ReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ReportSummary
	for id := range s.reports {
		r := s.reports[id]
		if documentID != "" && r.DocumentID != documentID {
			continue
		}
		out = append(out, domain.ReportSummary{
			ID:                r.ID,
			DocumentID:        r.DocumentID,
			DocumentName:      r.DocumentName,
			Score:             r.Score,
			TotalRulesChecked: r.TotalRulesChecked,
			State:             r.State,
			GeneratedAt:       r.GeneratedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].GeneratedAt.After(out[j].GeneratedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Len returns the number of stored reports.
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

func cloneReport(r *domain.ComplianceReport) domain.ComplianceReport {
	out := *r
	out.RuleSets = append([]string(nil), r.RuleSets...)
	out.Results = append([]domain.AssessmentResult(nil), r.Results...)
	return out
}
