package domain

import "time"

// EmptyReportSummary is the summary of a report for a document with no
// extractable text.
const EmptyReportSummary = "No document content could be extracted for compliance analysis."

// ComplianceReport is the aggregated outcome of one compliance run.
// A report is built once at the end of a run, persisted exactly once and
// never edited afterwards. Re-running creates a new report.
type ComplianceReport struct {
	ID                string             `json:"report_id"`
	DocumentID        string             `json:"document_id"`
	DocumentName      string             `json:"document_name"`
	Company           string             `json:"company_name,omitempty"`
	FiscalYear        string             `json:"fiscal_year,omitempty"`
	RuleSets          []string           `json:"frameworks_tested"`
	Counts            VerdictCounts      `json:"counts"`
	TotalRulesChecked int                `json:"total_rules_checked"`
	Score             float64            `json:"overall_compliance_score"`
	Results           []AssessmentResult `json:"results"`
	Summary           string             `json:"summary"`
	GeneratedAt       time.Time          `json:"generated_at"`
	ProcessingTime    time.Duration      `json:"processing_time"`
	State             RunState           `json:"state"`
}

// ReportMetadata carries the run-level fields a report is assembled from.
type ReportMetadata struct {
	DocumentID   string
	DocumentName string
	Company      string
	FiscalYear   string
	RuleSets     []string
	StartedAt    time.Time
}

// ReportSummary is a compact listing view of a stored report.
type ReportSummary struct {
	ID                string    `json:"report_id"`
	DocumentID        string    `json:"document_id"`
	DocumentName      string    `json:"document_name"`
	Score             float64   `json:"overall_compliance_score"`
	TotalRulesChecked int       `json:"total_rules_checked"`
	State             RunState  `json:"state"`
	GeneratedAt       time.Time `json:"generated_at"`
}
