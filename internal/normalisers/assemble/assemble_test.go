package assemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

func TestDocument_FillsDerivedFields(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/in/BRSR FY2024.json",
		Metadata: map[string]string{"company": " Acme Ltd ", "standard_name": "BRSR", "empty": " "},
	}
	elements := []domain.Element{
		{Type: domain.ElementTitle, Text: "Business Responsibility Report"},
		{Type: domain.ElementTable, Text: "Cash flow from operations | 10"},
		{Type: domain.ElementPageBreak},
		{Type: domain.ElementNarrative, Text: "  Energy use fell.  "},
	}

	doc := Document(raw, elements)

	assert.Equal(t, DocumentID(raw), doc.ID)
	assert.Equal(t, "BRSR FY2024.json", doc.Filename)
	assert.Equal(t, "el-1", doc.Elements[1].ID)
	assert.Equal(t, "BRSR FY2024.json", doc.Elements[1].Metadata.Filename)
	assert.Equal(t, domain.StatementCashFlow, doc.Elements[1].Metadata.FinancialStatementType)

	require.Len(t, doc.Tables, 1)
	assert.Equal(t, "tbl-el-1", doc.Tables[0].ID)
	assert.Equal(t, domain.StatementCashFlow, doc.Tables[0].FinancialStatementType)

	assert.Equal(t, "Acme Ltd", doc.Metadata.Company)
	assert.Equal(t, "FY2024", doc.Metadata.FiscalYear)
	assert.Equal(t, map[string]string{"standard_name": "BRSR"}, doc.Metadata.Extra)
	assert.Equal(t,
		"Business Responsibility Report\n\nCash flow from operations | 10\n\nEnergy use fell.",
		doc.Metadata.FullText)
	assert.Equal(t, domain.StatusUploaded, doc.Status)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestComplete_KeepsExistingFields(t *testing.T) {
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	doc := &domain.Document{
		ID:        "doc-1",
		Filename:  "given.pdf",
		Status:    domain.StatusProcessed,
		CreatedAt: created,
		Tables:    []domain.Table{{ID: "t1", PlainText: "x"}},
		Metadata:  domain.DocumentMetadata{FiscalYear: "FY2022", FullText: "given"},
	}

	Complete(&domain.RawDocument{URI: "other.json"}, doc)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "given.pdf", doc.Filename)
	assert.Equal(t, domain.StatusProcessed, doc.Status)
	assert.Equal(t, created, doc.CreatedAt)
	assert.Len(t, doc.Tables, 1)
	assert.Equal(t, "FY2022", doc.Metadata.FiscalYear)
	assert.Equal(t, "given", doc.Metadata.FullText)
}

func TestDocumentID(t *testing.T) {
	a := DocumentID(&domain.RawDocument{URI: "/x/report.json"})
	b := DocumentID(&domain.RawDocument{URI: "/y/report.json"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, DocumentID(&domain.RawDocument{URI: "/x/other.json"}))
	assert.Equal(t, "fixed", DocumentID(&domain.RawDocument{ID: "fixed", URI: "/x/report.json"}))
	assert.NotEmpty(t, DocumentID(&domain.RawDocument{}))
}

func TestTables_UsesMarkup(t *testing.T) {
	tables := Tables([]domain.Element{
		{ID: "t", Type: domain.ElementTable, Text: "fallback", HTML: "<table><tr><td>a</td><td>b</td></tr></table>", PageNumber: 4},
		{ID: "u", Type: domain.ElementTable, HTML: "<p>no rows</p>", Text: "  "},
	})

	require.Len(t, tables, 1)
	assert.Equal(t, "a | b", tables[0].PlainText)
	assert.Equal(t, 4, tables[0].PageNumber)
}
