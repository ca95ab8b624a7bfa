package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/logger"
)

// Ensure QueryPlanner can take custom prompts.
var _ driven.PromptStoreAware = (*QueryPlanner)(nil)

const (
	// maxPlannedQueries caps the queries kept from a plan.
	maxPlannedQueries = 8

	// maxPlanSections caps the section names shown to the LLM.
	maxPlanSections = 30

	// minQueryLength drops trivially short queries.
	minQueryLength = 10

	planTemperature = 0.1
)

// QueryPlanner turns a rule-set and the document's section outline into
// retrieval queries.
type QueryPlanner struct {
	llm     driven.LLMService
	catalog *RuleSetCatalog
	prompts driven.PromptStore
}

// NewQueryPlanner creates a planner. llm may be nil, in which case every
// plan uses the catalog's fallback queries.
func NewQueryPlanner(llm driven.LLMService, catalog *RuleSetCatalog) *QueryPlanner {
	if catalog == nil {
		catalog = NewRuleSetCatalog(domain.DefaultRuleSets())
	}
	return &QueryPlanner{llm: llm, catalog: catalog}
}

// SetPromptStore sets the prompt store for the query_plan template.
func (p *QueryPlanner) SetPromptStore(store driven.PromptStore) {
	p.prompts = store
}

// Plan returns 1 to 8 queries for ruleSet. It never fails: any problem with
// the LLM reply yields the static fallback list.
func (p *QueryPlanner) Plan(
	ctx context.Context, ruleSet string, docType domain.DocumentType, sectionNames []string,
) []string {
	queries, err := p.generate(ctx, ruleSet, docType, sectionNames)
	if err != nil {
		logger.Warn("Query generation for %s failed, using fallback queries: %v", ruleSet, err)
		return p.fallback(ruleSet)
	}
	if len(queries) == 0 {
		logger.Debug("Query generation for %s returned nothing usable", ruleSet)
		return p.fallback(ruleSet)
	}
	return queries
}

func (p *QueryPlanner) generate(
	ctx context.Context, ruleSet string, docType domain.DocumentType, sectionNames []string,
) ([]string, error) {
	if p.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	tmpl, err := loadPrompt(p.prompts, driven.PromptQueryPlan)
	if err != nil {
		return nil, err
	}

	names := sectionNames
	if len(names) > maxPlanSections {
		names = names[:maxPlanSections]
	}
	rs := p.catalog.Resolve(ruleSet)
	guidance := rs.Guidance
	if guidance == "" {
		guidance = "Focus on mandatory disclosure and presentation requirements."
	}

	prompt := fmt.Sprintf(tmpl, docType, strings.Join(names, ", "), ruleSet, guidance)
	reply, err := p.llm.Generate(ctx, driven.GenerateRequest{
		Prompt:      prompt,
		Temperature: driven.Temperature(planTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("generate queries: %w", err)
	}

	items, err := parseStringArray(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnparseable, err)
	}

	var queries []string
	for _, q := range items {
		q = strings.TrimSpace(q)
		if len([]rune(q)) <= minQueryLength {
			continue
		}
		queries = append(queries, q)
		if len(queries) == maxPlannedQueries {
			break
		}
	}
	return queries, nil
}

func (p *QueryPlanner) fallback(ruleSet string) []string {
	queries := p.catalog.FallbackQueries(ruleSet)
	if len(queries) > maxPlannedQueries {
		queries = queries[:maxPlannedQueries]
	}
	return queries
}
