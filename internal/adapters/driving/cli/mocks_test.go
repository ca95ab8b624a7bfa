package cli

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driving"
)

// mockSettingsService is a configurable SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	ruleSets    []domain.RuleSet
	validateErr error
	pingErr     error
	vectorErr   error

	savedProvider domain.AIProvider
	savedModel    string
	savedKey      string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		ruleSets: domain.DefaultRuleSets(),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.savedProvider, m.savedModel, m.savedKey = provider, model, apiKey
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.savedProvider, m.savedModel, m.savedKey = provider, model, apiKey
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) RuleSets() ([]domain.RuleSet, error) { return m.ruleSets, nil }
func (m *mockSettingsService) Validate() error                     { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings     { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error      { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error            { return m.pingErr }
func (m *mockSettingsService) ValidateVectorIndexConfig() error    { return m.vectorErr }

// mockDocumentService serves a fixed document set.
type mockDocumentService struct {
	docs    []domain.Document
	deleted []string
}

func newMockDocumentService() *mockDocumentService {
	score := 72.5
	return &mockDocumentService{
		docs: []domain.Document{
			{
				ID:           "doc-1",
				Filename:     "acme-annual-report.pdf",
				Status:       domain.StatusValidated,
				Metadata:     domain.DocumentMetadata{Company: "Acme Ltd", FiscalYear: "FY2024"},
				LastReportID: "rep-1",
				LastScore:    &score,
				UpdatedAt:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
			},
		},
	}
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.docs, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetDetails(ctx context.Context, id string) (*driving.DocumentDetails, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &driving.DocumentDetails{
		ID:           doc.ID,
		Filename:     doc.Filename,
		Status:       doc.Status,
		Company:      doc.Metadata.Company,
		FiscalYear:   doc.Metadata.FiscalYear,
		Type:         domain.DocTypeAnnualReport,
		Sections:     []string{"Balance Sheet", "Notes to Accounts"},
		ElementCount: 12,
		TableCount:   3,
		ChunkCount:   9,
		LastReportID: doc.LastReportID,
		LastScore:    doc.LastScore,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

// mockReportService serves one report and one progress record.
type mockReportService struct {
	report   *domain.ComplianceReport
	progress *domain.ProgressRecord
}

func newMockReportService() *mockReportService {
	return &mockReportService{
		report: testReport(),
		progress: &domain.ProgressRecord{
			JobID:      "job-1",
			DocumentID: "doc-1",
			Status:     domain.ProgressCompleted,
			Percent:    100,
			Step:       "Complete",
			ReportID:   "rep-1",
			UpdatedAt:  time.Date(2024, 6, 1, 10, 5, 0, 0, time.UTC),
		},
	}
}

func (m *mockReportService) Get(_ context.Context, id string) (*domain.ComplianceReport, error) {
	if m.report == nil || m.report.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.report, nil
}

func (m *mockReportService) List(_ context.Context, documentID string) ([]domain.ReportSummary, error) {
	if m.report == nil || (documentID != "" && documentID != m.report.DocumentID) {
		return nil, nil
	}
	return []domain.ReportSummary{{
		ID:                m.report.ID,
		DocumentID:        m.report.DocumentID,
		DocumentName:      m.report.DocumentName,
		Score:             m.report.Score,
		TotalRulesChecked: m.report.TotalRulesChecked,
		State:             m.report.State,
		GeneratedAt:       m.report.GeneratedAt,
	}}, nil
}

func (m *mockReportService) Progress(_ context.Context, jobID string) (*domain.ProgressRecord, error) {
	if m.progress == nil || m.progress.JobID != jobID {
		return nil, domain.ErrNotFound
	}
	return m.progress, nil
}

// mockComplianceService records requests and returns a canned report.
type mockComplianceService struct {
	requests []driving.CheckRequest
	report   *domain.ComplianceReport
	err      error
	batch    *domain.BatchSummary
	batchIDs []string
}

func (m *mockComplianceService) RunComplianceCheck(
	_ context.Context, req driving.CheckRequest,
) (*domain.ComplianceReport, error) {
	m.requests = append(m.requests, req)
	if req.Progress != nil {
		req.Progress.OnProgress("Retrieving rules for IndAS", 40)
	}
	return m.report, m.err
}

func (m *mockComplianceService) RunBatch(
	_ context.Context, ids []string, _ []string,
) (*domain.BatchSummary, error) {
	m.batchIDs = ids
	return m.batch, m.err
}

// mockIngestService counts ingested documents.
type mockIngestService struct {
	docs     []*domain.Document
	ruleSets []string
	err      error
}

func (m *mockIngestService) Ingest(_ context.Context, doc *domain.Document) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.docs = append(m.docs, doc)
	return 4, nil
}

func (m *mockIngestService) IngestRules(_ context.Context, ruleSet string, doc *domain.Document) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.ruleSets = append(m.ruleSets, ruleSet)
	m.docs = append(m.docs, doc)
	return 7, nil
}

// mockNormaliser builds a one-element document from the raw bytes.
type mockNormaliser struct {
	raw *domain.RawDocument
}

func (m *mockNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	m.raw = raw
	if len(raw.Content) == 0 {
		return nil, errors.New("empty file")
	}
	id := raw.ID
	if id == "" {
		id = "derived-id"
	}
	return &domain.Document{
		ID:       id,
		Filename: "report.md",
		Elements: []domain.Element{{ID: "e1", Type: domain.ElementNarrative, Text: string(raw.Content)}},
		Metadata: domain.DocumentMetadata{
			Company:    raw.Metadata["company"],
			FiscalYear: raw.Metadata["fiscal_year"],
		},
	}, nil
}

func (m *mockNormaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/plain"}
}

// mockMetricsWriter records written paths.
type mockMetricsWriter struct {
	paths []string
}

func (m *mockMetricsWriter) WriteTextfile(path string) error {
	m.paths = append(m.paths, path)
	return nil
}

func testReport() *domain.ComplianceReport {
	return &domain.ComplianceReport{
		ID:           "rep-1",
		DocumentID:   "doc-1",
		DocumentName: "acme-annual-report.pdf",
		Company:      "Acme Ltd",
		FiscalYear:   "FY2024",
		RuleSets:     []string{"IndAS", "Schedule_III"},
		Counts:       domain.VerdictCounts{Compliant: 3, NonCompliant: 1},
		Results: []domain.AssessmentResult{
			{
				RuleID:           "IndAS-24-18",
				RuleText:         "Disclose related party transactions.",
				RuleSet:          "IndAS",
				Verdict:          domain.VerdictNonCompliant,
				Confidence:       0.8,
				EvidenceLocation: "Notes to Accounts",
				Explanation:      "No related party note found.",
				Recommendation:   "Add the Ind AS 24 disclosures.",
			},
		},
		TotalRulesChecked: 4,
		Score:             75,
		Summary:           "Mostly compliant.",
		GeneratedAt:       time.Date(2024, 6, 1, 10, 5, 0, 0, time.UTC),
		ProcessingTime:    2 * time.Second,
		State:             domain.RunCompleted,
	}
}

// testHarness holds the mocks installed by setupTestServices.
type testHarness struct {
	settings   *mockSettingsService
	documents  *mockDocumentService
	reports    *mockReportService
	compliance *mockComplianceService
	ingest     *mockIngestService
	normaliser *mockNormaliser
	metrics    *mockMetricsWriter
}

// setupTestServices installs mocks for every service and resets command
// flags. The returned function restores the previous state.
func setupTestServices() func() {
	_, cleanup := setupTestHarness()
	return cleanup
}

func setupTestHarness() (*testHarness, func()) {
	h := &testHarness{
		settings:   newMockSettingsService(),
		documents:  newMockDocumentService(),
		reports:    newMockReportService(),
		compliance: &mockComplianceService{report: testReport()},
		ingest:     &mockIngestService{},
		normaliser: &mockNormaliser{},
		metrics:    &mockMetricsWriter{},
	}

	oldSettings, oldDocs, oldReports := settingsService, documentService, reportService
	oldRuntime, oldNormaliser, oldMetrics := runtimeFactory, normaliser, metricsWriter

	SetServices(Services{
		Settings:  h.settings,
		Documents: h.documents,
		Reports:   h.reports,
		Runtime: func(context.Context) (*Runtime, error) {
			return &Runtime{Compliance: h.compliance, Ingest: h.ingest}, nil
		},
		Normaliser: h.normaliser,
		Metrics:    h.metrics,
	})
	resetFlags()

	return h, func() {
		settingsService, documentService, reportService = oldSettings, oldDocs, oldReports
		runtimeFactory, normaliser, metricsWriter = oldRuntime, oldNormaliser, oldMetrics
		resetFlags()
	}
}

// resetFlags clears flag values left behind by earlier executions.
func resetFlags() {
	verbose, metricsFile = false, ""
	checkRuleSets, checkSections, checkJobID, checkJSON = nil, nil, "", false
	batchRuleSets = nil
	ingestID, ingestCompany, ingestFiscalYear, ingestMIMEType = "", "", "", ""
	ingestWatch = false
	reportJSON, reportResults = false, false
	versionShort = false
}
