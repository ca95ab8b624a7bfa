package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-comply/internal/logger"
)

// EngineDeps holds the collaborators of a ComplianceEngine.
// LLM and Metrics are optional.
type EngineDeps struct {
	Documents driven.DocumentStore
	Reports   driven.ReportStore
	Index     driven.VectorIndex
	Embedder  driven.EmbeddingService
	LLM       driven.LLMService
	Prompts   driven.PromptStore
	Metrics   driven.MetricsRecorder
	Catalog   *RuleSetCatalog
	Settings  domain.EngineSettings

	// Sleeper replaces the wall clock for assessment delays and backoff.
	Sleeper Sleeper
}

// ComplianceEngine runs one document through decomposition, query
// planning, rule retrieval, assessment and synthesis.
type ComplianceEngine struct {
	docs        driven.DocumentStore
	reports     driven.ReportStore
	index       driven.VectorIndex
	catalog     *RuleSetCatalog
	planner     *QueryPlanner
	retriever   *RuleRetriever
	assessor    *ComplianceAssessor
	synthesizer *ReportSynthesizer
	settings    domain.EngineSettings
	metrics     driven.MetricsRecorder
	now         func() time.Time
}

// NewComplianceEngine wires the engine components from deps.
func NewComplianceEngine(deps EngineDeps) *ComplianceEngine {
	settings := deps.Settings
	defaults := domain.DefaultEngineSettings()
	if settings.MaxRulesPerRuleSet <= 0 {
		settings.MaxRulesPerRuleSet = defaults.MaxRulesPerRuleSet
	}
	if len(settings.DefaultRuleSets) == 0 {
		settings.DefaultRuleSets = defaults.DefaultRuleSets
	}
	if settings.EvidenceCollection == "" {
		settings.EvidenceCollection = defaults.EvidenceCollection
	}

	catalog := deps.Catalog
	if catalog == nil {
		catalog = NewRuleSetCatalog(domain.DefaultRuleSets())
	}
	var metrics driven.MetricsRecorder = noopMetrics{}
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}

	planner := NewQueryPlanner(deps.LLM, catalog)
	planner.SetPromptStore(deps.Prompts)

	retriever := NewRuleRetriever(deps.Embedder, deps.Index, catalog, settings.TopK)
	retriever.SetMetrics(metrics)

	locator := NewEvidenceLocator(deps.Embedder, deps.Index, settings.EvidenceCollection, settings.TopK)
	assessor := NewComplianceAssessor(deps.LLM, locator, settings,
		WithSleeper(deps.Sleeper), WithAssessorMetrics(metrics))
	assessor.SetPromptStore(deps.Prompts)

	synthesizer := NewReportSynthesizer(deps.LLM)
	synthesizer.SetPromptStore(deps.Prompts)

	return &ComplianceEngine{
		docs:        deps.Documents,
		reports:     deps.Reports,
		index:       deps.Index,
		catalog:     catalog,
		planner:     planner,
		retriever:   retriever,
		assessor:    assessor,
		synthesizer: synthesizer,
		settings:    settings,
		metrics:     metrics,
		now:         time.Now,
	}
}

// engineRun is the per-call state of one compliance check.
type engineRun struct {
	tracker *domain.RunTracker
	sink    driven.ProgressSink
	meta    domain.ReportMetadata
	start   time.Time
}

// progress forwards to the sink. Sink panics are swallowed.
func (r *engineRun) progress(step string, percent int) {
	if r.sink == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Debug("Progress sink failed: %v", p)
		}
	}()
	r.sink.OnProgress(step, percent)
}

// RunComplianceCheck assesses one document against the requested
// rule-sets and persists the resulting report. The returned report is
// never nil. A missing document returns an unpersisted failed report and
// an error wrapping domain.ErrNotFound.
func (e *ComplianceEngine) RunComplianceCheck(
	ctx context.Context, req driving.CheckRequest,
) (report *domain.ComplianceReport, err error) {
	ruleSets := req.RuleSets
	if len(ruleSets) == 0 {
		ruleSets = e.settings.DefaultRuleSets
	}

	run := &engineRun{
		tracker: domain.NewRunTracker(),
		sink:    req.Progress,
		start:   e.now(),
		meta: domain.ReportMetadata{
			DocumentID: req.DocumentID,
			RuleSets:   append([]string(nil), ruleSets...),
		},
	}
	run.meta.StartedAt = run.start

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("compliance check aborted: %v", p)
			report = e.failRun(ctx, run, err)
		}
	}()

	return e.run(ctx, run, req)
}

func (e *ComplianceEngine) run(
	ctx context.Context, run *engineRun, req driving.CheckRequest,
) (*domain.ComplianceReport, error) {
	logger.Section("Compliance Check")
	logger.Debug("Document: %s, rule-sets: %v", req.DocumentID, run.meta.RuleSets)

	if err := e.advance(run, domain.RunDecomposing); err != nil {
		return e.failRun(ctx, run, err), err
	}
	run.progress("Phase 1: Decomposing document structure...", 5)

	doc, err := e.docs.GetDocument(ctx, req.DocumentID)
	if err != nil {
		err = fmt.Errorf("load document %s: %w", req.DocumentID, err)
		if errors.Is(err, domain.ErrNotFound) {
			run.tracker.Fail()
			e.metrics.ObserveRun(string(domain.RunFailed), e.now().Sub(run.start))
			report := e.emptyReport(run, fmt.Sprintf("Document not found: %s", req.DocumentID))
			return report, err
		}
		return e.failRun(ctx, run, err), err
	}

	run.meta.DocumentName = doc.Filename
	run.meta.Company = doc.Metadata.Company
	run.meta.FiscalYear = doc.Metadata.FiscalYear

	chunks, err := e.docs.GetChunks(ctx, doc.ID)
	if err != nil {
		logger.Debug("No stored chunks for %s: %v", doc.ID, err)
	}
	all := decomposeDocument(doc, chunks)
	docType := domain.DetectDocumentType(doc.Filename, all)
	sections := domain.FilterSections(all, req.SectionFilter)

	if len(sections) == 0 {
		logger.Warn("No text sections found for document %s", doc.ID)
		report := e.emptyReport(run, domain.EmptyReportSummary)
		run.tracker.Fail()
		e.metrics.ObserveRun(string(domain.RunFailed), e.now().Sub(run.start))
		if _, err := e.reports.InsertReport(ctx, report); err != nil {
			return report, fmt.Errorf("store report: %w", err)
		}
		return report, nil
	}

	run.progress(fmt.Sprintf("Phase 1 complete: Found %d sections, %d tables. Type: %s",
		len(sections), len(doc.Tables), docType), 10)
	logger.Info("Phase 1 complete: %d sections, %d tables, type %s", len(sections), len(doc.Tables), docType)

	var results []domain.AssessmentResult
	total := len(run.meta.RuleSets)
	for i, name := range run.meta.RuleSets {
		pct := func(offset int) int { return ruleSetPercent(i, total, offset) }
		rs, err := e.runRuleSet(ctx, run, doc, sections, name, docType, pct)
		if err != nil {
			return e.failRun(ctx, run, err), err
		}
		results = append(results, rs...)
	}

	if err := e.advance(run, domain.RunSynthesizing); err != nil {
		return e.failRun(ctx, run, err), err
	}
	logger.Section("Synthesis")
	run.progress("Phase 5: Synthesising results and generating summary...", 85)

	report := e.synthesizer.Synthesize(ctx, results, run.meta)
	report.State = domain.RunCompleted
	if _, err := e.reports.InsertReport(ctx, report); err != nil {
		run.tracker.Fail()
		report.State = domain.RunFailed
		e.metrics.ObserveRun(string(domain.RunFailed), e.now().Sub(run.start))
		return report, fmt.Errorf("store report: %w", err)
	}

	if err := run.tracker.Transition(domain.RunCompleted); err != nil {
		return report, err
	}
	run.progress("Compliance check complete", 100)
	e.metrics.ObserveRun(string(domain.RunCompleted), e.now().Sub(run.start))
	logger.Info("Compliance check complete: score=%.1f%%, %d rules, %s",
		report.Score, report.TotalRulesChecked, report.ProcessingTime.Round(time.Millisecond))
	return report, nil
}

// runRuleSet plans, retrieves and assesses one rule-set. Empty or
// unavailable collections are skipped.
func (e *ComplianceEngine) runRuleSet(
	ctx context.Context,
	run *engineRun,
	doc *domain.Document,
	sections []domain.Section,
	name string,
	docType domain.DocumentType,
	pct func(offset int) int,
) ([]domain.AssessmentResult, error) {
	logger.Section("Rule-set " + name)
	rs := e.catalog.Resolve(name)

	n, err := e.index.Count(ctx, rs.Collection)
	if err != nil {
		logger.Warn("Collection %q unavailable, skipping rule-set %s: %v", rs.Collection, name, err)
		return nil, nil
	}
	if n == 0 {
		logger.Warn("Collection %q is empty, skipping rule-set %s", rs.Collection, name)
		return nil, nil
	}

	if err := e.advance(run, domain.RunRetrieving); err != nil {
		return nil, err
	}
	run.progress(fmt.Sprintf("Phase 2: Generating compliance queries for %s...", name), pct(5))
	queries := e.planner.Plan(ctx, name, docType, domain.SectionNames(sections))
	logger.Info("Rule-set %s: %d compliance queries", name, len(queries))

	run.progress(fmt.Sprintf("Phase 3: Retrieving relevant rules for %s (%d queries)...", name, len(queries)), pct(15))
	rules := e.retriever.Retrieve(ctx, queries, name, rs.Collection)
	run.progress(fmt.Sprintf("Phase 3: Found %d unique rules for %s", len(rules), name), pct(25))
	if len(rules) == 0 {
		return nil, nil
	}
	if len(rules) > e.settings.MaxRulesPerRuleSet {
		rules = rules[:e.settings.MaxRulesPerRuleSet]
	}

	if err := e.advance(run, domain.RunAssessing); err != nil {
		return nil, err
	}
	run.progress(fmt.Sprintf("Phase 4: Assessing %d rules for %s...", len(rules), name), pct(30))
	results := e.assessor.AssessAll(ctx, rules, doc, sections, name, docType)
	run.progress(fmt.Sprintf("Phase 4: Completed %s, assessed %d rules", name, len(results)), pct(55))
	return results, nil
}

// Rule-set phases share the 10..80 progress band. Sub-phase offsets run
// from 0 to ruleSetSpan and are scaled into each rule-set's share, so
// progress never falls back and stays below the synthesis mark.
const (
	ruleSetBandStart = 10
	ruleSetBand      = 70
	ruleSetSpan      = 55
)

// ruleSetPercent is the progress for a sub-phase offset of rule-set i of total.
func ruleSetPercent(i, total, offset int) int {
	window := ruleSetBand / total
	return ruleSetBandStart + i*ruleSetBand/total + offset*window/ruleSetSpan
}

// advance moves the run to next unless it is already there.
func (e *ComplianceEngine) advance(run *engineRun, next domain.RunState) error {
	if run.tracker.State() == next {
		return nil
	}
	return run.tracker.Transition(next)
}

// failRun marks the run failed and persists a best-effort empty report.
func (e *ComplianceEngine) failRun(ctx context.Context, run *engineRun, cause error) *domain.ComplianceReport {
	logger.Warn("Compliance check failed: %v", cause)
	run.tracker.Fail()
	e.metrics.ObserveRun(string(domain.RunFailed), e.now().Sub(run.start))

	report := e.emptyReport(run, fmt.Sprintf("Compliance check failed: %v", cause))
	if e.reports != nil {
		if _, err := e.reports.InsertReport(ctx, report); err != nil {
			logger.Warn("Storing failed report: %v", err)
		}
	}
	return report
}

// emptyReport builds a zero-count failed report.
func (e *ComplianceEngine) emptyReport(run *engineRun, summary string) *domain.ComplianceReport {
	now := e.now().UTC()
	return &domain.ComplianceReport{
		ID:             e.synthesizer.newID(),
		DocumentID:     run.meta.DocumentID,
		DocumentName:   run.meta.DocumentName,
		Company:        run.meta.Company,
		FiscalYear:     run.meta.FiscalYear,
		RuleSets:       append([]string(nil), run.meta.RuleSets...),
		Results:        []domain.AssessmentResult{},
		Summary:        summary,
		GeneratedAt:    now,
		ProcessingTime: now.Sub(run.start),
		State:          domain.RunFailed,
	}
}
