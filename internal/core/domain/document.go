package domain

import "time"

// ElementType identifies the kind of an extracted document element.
type ElementType string

// Element types produced by the upstream extractor.
const (
	ElementTitle     ElementType = "Title"
	ElementHeader    ElementType = "Header"
	ElementNarrative ElementType = "NarrativeText"
	ElementListItem  ElementType = "ListItem"
	ElementTable     ElementType = "Table"
	ElementPageBreak ElementType = "PageBreak"
	ElementOther     ElementType = "Other"
)

// StartsSection returns true if the element opens or nests a section.
func (t ElementType) StartsSection() bool {
	return t == ElementTitle || t == ElementHeader
}

// ElementMetadata carries the well-known element attributes.
// Anything the extractor emits beyond these lands in Extra.
type ElementMetadata struct {
	// Filename is the source file the element was extracted from.
	Filename string `json:"filename,omitempty"`

	// FinancialStatementType labels tables (e.g. "balance_sheet").
	FinancialStatementType string `json:"financial_statement_type,omitempty"`

	// Extra holds extractor-specific attributes.
	Extra map[string]string `json:"extra,omitempty"`
}

// Element is an atomic extracted unit of a document.
// Elements are immutable once produced by the extractor.
type Element struct {
	// ID is the extractor-assigned element identifier.
	ID string `json:"element_id"`

	// Type is the element kind.
	Type ElementType `json:"element_type"`

	// Text is the raw text content.
	Text string `json:"text"`

	// HTML is the table markup, empty for non-table elements.
	HTML string `json:"html,omitempty"`

	// PageNumber is the 1-based page the element appears on, 0 if unknown.
	PageNumber int `json:"page_number,omitempty"`

	// Metadata holds typed element attributes.
	Metadata ElementMetadata `json:"metadata"`
}

// Table is a document-level extracted table, used as tabular evidence.
type Table struct {
	ID                     string `json:"table_id"`
	PageNumber             int    `json:"page_number,omitempty"`
	HTML                   string `json:"html,omitempty"`
	PlainText              string `json:"plain_text"`
	FinancialStatementType string `json:"financial_statement_type,omitempty"`
}

// DocumentStatus tracks a document through processing and validation.
type DocumentStatus string

// Document statuses.
const (
	StatusUploaded         DocumentStatus = "uploaded"
	StatusProcessing       DocumentStatus = "processing"
	StatusProcessed        DocumentStatus = "processed"
	StatusPartial          DocumentStatus = "partial"
	StatusFailed           DocumentStatus = "failed"
	StatusValidating       DocumentStatus = "validating"
	StatusValidated        DocumentStatus = "validated"
	StatusValidationFailed DocumentStatus = "validation_failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusProcessed, StatusPartial,
		StatusFailed, StatusValidating, StatusValidated, StatusValidationFailed:
		return true
	default:
		return false
	}
}

// DocumentMetadata carries the well-known document attributes.
type DocumentMetadata struct {
	// Company is the reporting entity, if known.
	Company string `json:"company,omitempty"`

	// FiscalYear is the reporting period label, if known.
	FiscalYear string `json:"fiscal_year,omitempty"`

	// FullText is the whole-document text, used as a last-resort section.
	FullText string `json:"full_text,omitempty"`

	// Extra holds any other attributes.
	Extra map[string]string `json:"extra,omitempty"`
}

// Document is a processed document ready for chunking and assessment.
type Document struct {
	// ID is the unique identifier.
	ID string `json:"document_id"`

	// Filename is the original upload name.
	Filename string `json:"filename"`

	// Elements are the extracted elements in document order.
	Elements []Element `json:"elements"`

	// Tables are the extracted tables.
	Tables []Table `json:"tables,omitempty"`

	// Metadata holds document attributes.
	Metadata DocumentMetadata `json:"metadata"`

	// Status is the processing/validation status.
	Status DocumentStatus `json:"status,omitempty"`

	// LastReportID references the most recent compliance report.
	LastReportID string `json:"last_compliance_report_id,omitempty"`

	// LastScore is the score of the most recent compliance report.
	LastScore *float64 `json:"last_compliance_score,omitempty"`

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentStatusUpdate describes a status change and the fields that go with it.
type DocumentStatusUpdate struct {
	Status       DocumentStatus
	LastReportID string
	LastScore    *float64
}
