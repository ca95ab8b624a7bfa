package domain

import "strings"

// Well-known section names produced by document decomposition.
const (
	SectionPreamble     = "(Preamble)"
	SectionGeneral      = "General"
	SectionTables       = "Tables and Financial Data"
	SectionFullDocument = "Full Document"
)

// Section is a contiguous run of document text under one heading.
type Section struct {
	// Name is the heading text.
	Name string

	// Text is the section body, paragraphs joined by blank lines.
	Text string

	// Pages lists the pages the section spans, ascending.
	Pages []int
}

// SectionNames returns the names of the given sections in order.
func SectionNames(sections []Section) []string {
	names := make([]string, len(sections))
	for i := range sections {
		names[i] = sections[i].Name
	}
	return names
}

// FilterSections keeps the sections whose name matches one of names,
// ignoring case. An empty filter keeps everything.
func FilterSections(sections []Section, names []string) []Section {
	if len(names) == 0 {
		return sections
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[strings.ToLower(n)] = struct{}{}
	}
	var out []Section
	for _, s := range sections {
		if _, ok := want[strings.ToLower(s.Name)]; ok {
			out = append(out, s)
		}
	}
	return out
}

// DocumentType is a coarse classification used to steer query generation.
type DocumentType string

// Document types.
const (
	DocTypeAnnualReport       DocumentType = "annual_report"
	DocTypeAuditReport        DocumentType = "audit_report"
	DocTypeFinancialStatement DocumentType = "financial_statement"
	DocTypeESGReport          DocumentType = "esg_report"
	DocTypeFinancialDocument  DocumentType = "financial_document"
)

// DetectDocumentType classifies a document from its filename and section names.
func DetectDocumentType(filename string, sections []Section) DocumentType {
	name := strings.ToLower(filename)
	all := strings.ToLower(strings.Join(SectionNames(sections), " "))

	switch {
	case strings.Contains(name, "annual report") || strings.Contains(all, "annual report"):
		return DocTypeAnnualReport
	case strings.Contains(name, "audit") || strings.Contains(all, "auditor"):
		return DocTypeAuditReport
	case strings.Contains(all, "balance sheet") ||
		strings.Contains(all, "profit and loss") ||
		strings.Contains(all, "cash flow"):
		return DocTypeFinancialStatement
	case strings.Contains(name, "brsr") || strings.Contains(all, "sustainability"):
		return DocTypeESGReport
	default:
		return DocTypeFinancialDocument
	}
}
