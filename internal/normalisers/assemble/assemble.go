// Package assemble completes documents produced by the normalisers.
//
// Normalisers only know how to read elements out of their format. The
// rest of a processed document is derived the same way for every format:
// a stable id, the table list, the full text and the well-known metadata.
package assemble

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/html"
)

// Metadata keys read from RawDocument.Metadata.
const (
	MetaCompany    = "company"
	MetaFiscalYear = "fiscal_year"
)

// fiscalScanLimit bounds how much of the text is searched for a fiscal year.
const fiscalScanLimit = 2000

// Document builds a document from raw and its extracted elements.
func Document(raw *domain.RawDocument, elements []domain.Element) *domain.Document {
	return Complete(raw, &domain.Document{Elements: elements})
}

// Complete fills the fields of doc the extractor left empty.
// Fields already set are kept.
func Complete(raw *domain.RawDocument, doc *domain.Document) *domain.Document {
	if doc.ID == "" {
		doc.ID = DocumentID(raw)
	}
	if doc.Filename == "" {
		doc.Filename = filepath.Base(raw.URI)
	}

	for i := range doc.Elements {
		el := &doc.Elements[i]
		if el.ID == "" {
			el.ID = fmt.Sprintf("el-%d", i)
		}
		if el.Metadata.Filename == "" {
			el.Metadata.Filename = doc.Filename
		}
		if el.Type == domain.ElementTable && el.Metadata.FinancialStatementType == "" {
			el.Metadata.FinancialStatementType = domain.ClassifyFinancialStatement(el.Text + "\n" + tablePlainText(el))
		}
	}

	if len(doc.Tables) == 0 {
		doc.Tables = Tables(doc.Elements)
	}

	applyMetadata(raw.Metadata, &doc.Metadata)
	if doc.Metadata.FullText == "" {
		doc.Metadata.FullText = FullText(doc.Elements)
	}
	if doc.Metadata.FiscalYear == "" {
		doc.Metadata.FiscalYear = domain.DetectFiscalYear(doc.Filename)
	}
	if doc.Metadata.FiscalYear == "" {
		doc.Metadata.FiscalYear = domain.DetectFiscalYear(prefix(doc.Metadata.FullText, fiscalScanLimit))
	}

	if doc.Status == "" {
		doc.Status = domain.StatusUploaded
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	return doc
}

// DocumentID returns raw.ID, or an id derived from the file name so that
// loading the same file twice yields the same document.
func DocumentID(raw *domain.RawDocument) string {
	if raw.ID != "" {
		return raw.ID
	}
	if raw.URI == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(filepath.Base(raw.URI))).String()
}

// Tables lists the table elements as document tables.
func Tables(elements []domain.Element) []domain.Table {
	var tables []domain.Table
	for i := range elements {
		el := &elements[i]
		if el.Type != domain.ElementTable {
			continue
		}
		plain := tablePlainText(el)
		if plain == "" {
			continue
		}
		tables = append(tables, domain.Table{
			ID:                     "tbl-" + el.ID,
			PageNumber:             el.PageNumber,
			HTML:                   el.HTML,
			PlainText:              plain,
			FinancialStatementType: el.Metadata.FinancialStatementType,
		})
	}
	return tables
}

// FullText joins the text of all elements, tables rendered as rows.
func FullText(elements []domain.Element) string {
	parts := make([]string, 0, len(elements))
	for i := range elements {
		el := &elements[i]
		var text string
		switch el.Type {
		case domain.ElementPageBreak:
			continue
		case domain.ElementTable:
			text = tablePlainText(el)
		default:
			text = strings.TrimSpace(el.Text)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func tablePlainText(el *domain.Element) string {
	if el.HTML != "" {
		if text, err := html.TableText(el.HTML); err == nil {
			return text
		}
	}
	return strings.TrimSpace(el.Text)
}

func applyMetadata(src map[string]string, dst *domain.DocumentMetadata) {
	for k, v := range src {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		switch k {
		case MetaCompany:
			dst.Company = v
		case MetaFiscalYear:
			dst.FiscalYear = v
		default:
			if dst.Extra == nil {
				dst.Extra = make(map[string]string)
			}
			dst.Extra[k] = v
		}
	}
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
