package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/logger"
	"github.com/custodia-labs/sercha-comply/internal/prompts"
)

// Ensure ReportSynthesizer can take custom prompts.
var _ driven.PromptStoreAware = (*ReportSynthesizer)(nil)

const (
	maxFindings           = 10
	maxFindingChars       = 300
	summaryTemperature    = 0.3
	noNonCompliantFinding = "(no non-compliant findings)"
	noPartialFinding      = "(no partial findings)"
	notAvailable          = "N/A"
)

// SummaryFallback replaces the executive summary when generation fails.
const SummaryFallback = "Executive summary generation failed. Please review the detailed findings below."

// ReportSynthesizer aggregates results into a scored report with an
// executive summary.
type ReportSynthesizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	now     func() time.Time
	newID   func() string
}

// NewReportSynthesizer creates a synthesizer. llm may be nil, in which
// case every report carries the fallback summary.
func NewReportSynthesizer(llm driven.LLMService) *ReportSynthesizer {
	return &ReportSynthesizer{
		llm:   llm,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SetPromptStore sets the prompt store for the executive_summary template.
func (s *ReportSynthesizer) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Synthesize tallies results, scores them and writes the summary.
// The report is not persisted.
func (s *ReportSynthesizer) Synthesize(
	ctx context.Context, results []domain.AssessmentResult, meta domain.ReportMetadata,
) *domain.ComplianceReport {
	counts := domain.CountVerdicts(results)
	now := s.now().UTC()

	report := &domain.ComplianceReport{
		ID:                s.newID(),
		DocumentID:        meta.DocumentID,
		DocumentName:      meta.DocumentName,
		Company:           meta.Company,
		FiscalYear:        meta.FiscalYear,
		RuleSets:          append([]string(nil), meta.RuleSets...),
		Counts:            counts,
		TotalRulesChecked: counts.Total(),
		Score:             counts.Score(),
		Results:           append([]domain.AssessmentResult(nil), results...),
		GeneratedAt:       now,
		State:             domain.RunSynthesizing,
	}
	if !meta.StartedAt.IsZero() {
		report.ProcessingTime = now.Sub(meta.StartedAt)
	}

	summary, err := s.summarise(ctx, report)
	if err != nil {
		logger.Warn("Executive summary generation failed: %v", err)
		summary = SummaryFallback
	}
	report.Summary = summary
	return report
}

func (s *ReportSynthesizer) summarise(ctx context.Context, r *domain.ComplianceReport) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	tmpl, err := loadPrompt(s.prompts, driven.PromptExecutiveSummary)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(tmpl,
		r.DocumentName,
		orNotAvailable(r.Company),
		orNotAvailable(r.FiscalYear),
		strings.Join(r.RuleSets, ", "),
		strconv.FormatFloat(r.Score, 'f', 1, 64),
		r.TotalRulesChecked,
		r.Counts.Compliant,
		r.Counts.NonCompliant,
		r.Counts.Partial,
		r.Counts.NotApplicable,
		findings(r.Results, domain.VerdictNonCompliant, noNonCompliantFinding),
		findings(r.Results, domain.VerdictPartiallyCompliant, noPartialFinding),
	)

	summary, err := s.llm.Generate(ctx, driven.GenerateRequest{
		System:      prompts.SummarySystem,
		Prompt:      prompt,
		Temperature: driven.Temperature(summaryTemperature),
	})
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", domain.ErrNoContent
	}
	return summary, nil
}

// findings lists up to ten results with verdict v as "- [source] explanation".
func findings(results []domain.AssessmentResult, v domain.Verdict, empty string) string {
	var lines []string
	for i := range results {
		if results[i].Verdict != v {
			continue
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s",
			results[i].RuleSource, truncateRunes(results[i].Explanation, maxFindingChars)))
		if len(lines) == maxFindings {
			break
		}
	}
	if len(lines) == 0 {
		return empty
	}
	return strings.Join(lines, "\n")
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
