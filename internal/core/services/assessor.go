package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/logger"
)

// Ensure ComplianceAssessor can take custom prompts.
var _ driven.PromptStoreAware = (*ComplianceAssessor)(nil)

// Prompt and result caps, in characters.
const (
	maxRulePromptChars     = 2000
	maxDocPromptChars      = 5000
	maxTablesPromptChars   = 2000
	maxResultRuleChars     = 500
	maxResultEvidenceChars = 1500
	maxUnparseableEcho     = 200

	defaultConfidence = 0.5
	noTables          = "(none)"
)

// Fallback explanations for assessments that produced no verdict.
const (
	ExplainRateLimited = "Rate limit exceeded - could not complete assessment."
	ExplainLLMFailed   = "LLM chain-of-thought assessment failed."
	ExplainUnparseable = "Could not parse LLM response: "
)

// ComplianceAssessor produces a verdict for each retrieved rule.
type ComplianceAssessor struct {
	llm            driven.LLMService
	evidence       EvidenceFinder
	prompts        driven.PromptStore
	policy         BackoffPolicy
	sleeper        Sleeper
	delay          time.Duration
	maxConcurrent  int
	maxSectionText int
	metrics        driven.MetricsRecorder
	now            func() time.Time
}

// AssessorOption configures a ComplianceAssessor.
type AssessorOption func(*ComplianceAssessor)

// WithSleeper replaces the wall-clock sleeper used for the pre-call delay
// and rate-limit backoff.
func WithSleeper(s Sleeper) AssessorOption {
	return func(a *ComplianceAssessor) {
		if s != nil {
			a.sleeper = s
		}
	}
}

// WithAssessorMetrics sets the metrics recorder.
func WithAssessorMetrics(m driven.MetricsRecorder) AssessorOption {
	return func(a *ComplianceAssessor) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithClock sets the time source for duration measurements.
func WithClock(now func() time.Time) AssessorOption {
	return func(a *ComplianceAssessor) {
		if now != nil {
			a.now = now
		}
	}
}

// NewComplianceAssessor creates an assessor. evidence may be nil, in which
// case the decomposed document text is used as context for every rule.
func NewComplianceAssessor(
	llm driven.LLMService,
	evidence EvidenceFinder,
	settings domain.EngineSettings,
	opts ...AssessorOption,
) *ComplianceAssessor {
	a := &ComplianceAssessor{
		llm:            llm,
		evidence:       evidence,
		policy:         NewBackoffPolicy(settings.Retry),
		sleeper:        realSleeper{},
		delay:          settings.AssessDelay,
		maxConcurrent:  settings.MaxConcurrent,
		maxSectionText: settings.MaxSectionText,
		metrics:        noopMetrics{},
		now:            time.Now,
	}
	if a.maxConcurrent < 1 {
		a.maxConcurrent = 1
	}
	if a.maxSectionText <= 0 {
		a.maxSectionText = domain.DefaultEngineSettings().MaxSectionText
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetPromptStore sets the prompt store for the assessment templates.
func (a *ComplianceAssessor) SetPromptStore(store driven.PromptStore) {
	a.prompts = store
}

// AssessAll assesses rules with at most MaxConcurrent provider calls in
// flight. Each task waits the configured delay before its call. Results
// are returned in the order of rules. sections supply the context for
// rules without evidence; nil sections are rebuilt from doc.
func (a *ComplianceAssessor) AssessAll(
	ctx context.Context,
	rules []domain.RuleCandidate,
	doc *domain.Document,
	sections []domain.Section,
	ruleSet string,
	docType domain.DocumentType,
) []domain.AssessmentResult {
	results := make([]domain.AssessmentResult, len(rules))
	if len(rules) == 0 {
		return results
	}

	if sections == nil {
		sections = decomposeDocument(doc, nil)
	}
	docContext := documentContext(sections, a.maxSectionText)

	var g errgroup.Group
	g.SetLimit(a.maxConcurrent)
	for i := range rules {
		g.Go(func() error {
			if err := a.sleeper.Sleep(ctx, a.delay); err != nil {
				logger.Debug("Assessment delay interrupted: %v", err)
			}
			results[i] = a.assess(ctx, rules[i], doc, ruleSet, docType, docContext)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Assess produces the verdict for a single rule. It never fails: provider
// and parse problems become UNABLE_TO_DETERMINE results.
func (a *ComplianceAssessor) Assess(
	ctx context.Context,
	rule domain.RuleCandidate,
	doc *domain.Document,
	ruleSet string,
	docType domain.DocumentType,
) domain.AssessmentResult {
	return a.assess(ctx, rule, doc, ruleSet, docType,
		documentContext(decomposeDocument(doc, nil), a.maxSectionText))
}

func (a *ComplianceAssessor) assess(
	ctx context.Context,
	rule domain.RuleCandidate,
	doc *domain.Document,
	ruleSet string,
	docType domain.DocumentType,
	fallbackContext string,
) domain.AssessmentResult {
	start := a.now()
	result := a.evaluate(ctx, rule, doc, ruleSet, docType, fallbackContext)
	a.metrics.ObserveAssessment(ruleSet, result.Verdict.String(), a.now().Sub(start))
	logger.Debug("Assessed %s rule %s: %s (%.2f)", ruleSet, rule.ID, result.Verdict, result.Confidence)
	return result
}

func (a *ComplianceAssessor) evaluate(
	ctx context.Context,
	rule domain.RuleCandidate,
	doc *domain.Document,
	ruleSet string,
	docType domain.DocumentType,
	fallbackContext string,
) domain.AssessmentResult {
	base := domain.AssessmentResult{
		RuleID:     rule.ID,
		RuleText:   truncateRunes(rule.Text, maxResultRuleChars),
		RuleSource: rule.Source,
		RuleSet:    ruleSet,
	}

	if a.llm == nil {
		return undetermined(base, ExplainLLMFailed)
	}

	var evidence domain.Evidence
	if a.evidence != nil {
		ev, err := a.evidence.Locate(ctx, rule.Text, doc)
		if err != nil && !errors.Is(err, domain.ErrEmptyIndex) {
			logger.Debug("No evidence for rule %s: %v", rule.ID, err)
		}
		evidence = ev
	}
	excerpt := evidence.Excerpt
	if excerpt == "" {
		excerpt = fallbackContext
	}

	req, err := a.buildRequest(rule, doc, ruleSet, docType, excerpt)
	if err != nil {
		logger.Warn("Building assessment prompt failed: %v", err)
		return undetermined(base, ExplainLLMFailed)
	}

	var reply string
	err = a.policy.Do(ctx, a.sleeper, isRateLimit,
		func(attempt int, _ error) {
			logger.Warn("Rate limit hit (attempt %d/%d), waiting %s",
				attempt, a.policy.MaxAttempts, a.policy.Delay(attempt))
			a.metrics.ObserveRetry("rate_limit")
		},
		func(ctx context.Context) error {
			var gerr error
			reply, gerr = a.llm.Generate(ctx, req)
			return gerr
		},
	)
	if err != nil {
		if isRateLimit(err) {
			logger.Warn("Rate limit persisted after %d attempts for rule %s", a.policy.MaxAttempts, rule.ID)
			return undetermined(base, ExplainRateLimited)
		}
		logger.Warn("Assessment of rule %s failed: %v", rule.ID, err)
		return undetermined(base, ExplainLLMFailed)
	}

	out := parseJSONObject(reply)
	if !out.OK {
		return undetermined(base, ExplainUnparseable+truncateRunes(reply, maxUnparseableEcho))
	}

	res := base
	res.Verdict = domain.ParseVerdict(stringField(out.Value, "status"))
	res.Confidence = domain.ClampConfidence(floatField(out.Value, "confidence", defaultConfidence))
	res.Evidence = truncateRunes(stringField(out.Value, "evidence"), maxResultEvidenceChars)
	res.EvidenceLocation = stringField(out.Value, "evidence_location")
	if res.EvidenceLocation == "" {
		res.EvidenceLocation = evidence.Location
	}
	res.Explanation = stringField(out.Value, "explanation")
	res.Recommendation = stringField(out.Value, "recommendations")
	return res
}

func (a *ComplianceAssessor) buildRequest(
	rule domain.RuleCandidate,
	doc *domain.Document,
	ruleSet string,
	docType domain.DocumentType,
	excerpt string,
) (driven.GenerateRequest, error) {
	system, err := loadPrompt(a.prompts, driven.PromptAssessSystem)
	if err != nil {
		return driven.GenerateRequest{}, err
	}
	tmpl, err := loadPrompt(a.prompts, driven.PromptAssessUser)
	if err != nil {
		return driven.GenerateRequest{}, err
	}

	var tables []domain.Table
	if doc != nil {
		tables = doc.Tables
	}
	tableText := truncateRunes(tablesText(tables), maxTablesPromptChars)
	if tableText == "" {
		tableText = noTables
	}

	prompt := fmt.Sprintf(tmpl,
		ruleSet,
		docType,
		rule.Source,
		truncateRunes(rule.Text, maxRulePromptChars),
		truncateRunes(excerpt, maxDocPromptChars),
		tableText,
	)
	return driven.GenerateRequest{System: system, Prompt: prompt}, nil
}

func undetermined(base domain.AssessmentResult, explanation string) domain.AssessmentResult {
	base.Verdict = domain.VerdictUnableToDetermine
	base.Confidence = 0
	base.Explanation = explanation
	return base
}
