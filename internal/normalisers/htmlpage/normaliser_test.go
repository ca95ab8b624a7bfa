package htmlpage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

const filing = `<!DOCTYPE html>
<html>
<head><title>ignored</title><style>p { color: red }</style></head>
<body>
  <h1>Annual Report 2023-24</h1>
  <div>Registered office: Mumbai</div>
  <h2>Balance Sheet</h2>
  <table>
    <tr><th>Balance sheet item</th><th>FY2024</th></tr>
    <tr><td>Total assets</td><td>1,000</td></tr>
  </table>
  <div class="page-break"></div>
  <h3>Notes</h3>
  <p>Revenue is recognised<br>on delivery.</p>
  <ul><li>Ind AS 115</li><li>Ind AS 116</li></ul>
  <script>var x = 1;</script>
</body>
</html>`

func TestNormaliser_Interface(t *testing.T) {
	n := New()
	assert.Contains(t, n.SupportedMIMETypes(), "text/html")
	assert.Equal(t, 60, n.Priority())
}

func TestNormalise_Elements(t *testing.T) {
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "https://example.com/acme-annual-report.html",
		Content: []byte(filing),
	})
	require.NoError(t, err)

	var got []string
	for _, el := range doc.Elements {
		got = append(got, string(el.Type)+":"+el.Text)
	}
	assert.Equal(t, []string{
		"Title:Annual Report 2023-24",
		"NarrativeText:Registered office: Mumbai",
		"Header:Balance Sheet",
		"Table:Balance sheet item | FY2024\nTotal assets | 1,000",
		"PageBreak:",
		"Header:Notes",
		"NarrativeText:Revenue is recognised on delivery.",
		"ListItem:Ind AS 115",
		"ListItem:Ind AS 116",
	}, got)

	table := doc.Elements[3]
	assert.Contains(t, table.HTML, "<table>")
	assert.Equal(t, domain.StatementBalanceSheet, table.Metadata.FinancialStatementType)
	assert.Equal(t, 1, table.PageNumber)
	assert.Equal(t, 2, doc.Elements[5].PageNumber)

	require.Len(t, doc.Tables, 1)
	assert.Equal(t, "acme-annual-report.html", doc.Filename)
}

func TestNormalise_Errors(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "empty.html",
		Content: []byte("<html><head><title>x</title></head><body> </body></html>"),
	})
	assert.True(t, errors.Is(err, domain.ErrNoContent))
}
