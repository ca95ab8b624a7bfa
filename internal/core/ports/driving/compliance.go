package driving

import (
	"context"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// CheckRequest describes a single-document compliance run.
type CheckRequest struct {
	// DocumentID is the processed document to assess.
	DocumentID string

	// RuleSets names the rule-sets to test, in order.
	// Empty uses the configured defaults.
	RuleSets []string

	// SectionFilter restricts assessment to the named sections
	// (case-insensitive). Empty assesses all sections.
	SectionFilter []string

	// Progress receives incremental progress. Optional.
	Progress driven.ProgressSink

	// JobID identifies the persisted progress record. Optional.
	JobID string
}

// ComplianceService runs compliance checks.
type ComplianceService interface {
	// RunComplianceCheck grades one document and persists the report.
	// Only a missing document or an unexpected orchestration error is
	// returned as an error. A report is returned even then, carrying zero
	// counts and an explanatory summary. The report of a missing document
	// is not persisted.
	RunComplianceCheck(ctx context.Context, req CheckRequest) (*domain.ComplianceReport, error)

	// RunBatch checks documents sequentially and never aborts on an
	// individual failure.
	RunBatch(ctx context.Context, documentIDs []string, ruleSets []string) (*domain.BatchSummary, error)
}
