package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/logger"
)

// fingerprintChars is the prefix length hashed for deduplication.
const fingerprintChars = 500

// RuleRetriever runs planned queries against a rule collection and
// returns the distinct passages found.
type RuleRetriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	catalog  *RuleSetCatalog
	topK     int
	metrics  driven.MetricsRecorder
}

// NewRuleRetriever creates a retriever.
func NewRuleRetriever(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	catalog *RuleSetCatalog,
	topK int,
) *RuleRetriever {
	if catalog == nil {
		catalog = NewRuleSetCatalog(domain.DefaultRuleSets())
	}
	if topK <= 0 {
		topK = domain.DefaultEngineSettings().TopK
	}
	return &RuleRetriever{
		embedder: embedder,
		index:    index,
		catalog:  catalog,
		topK:     topK,
		metrics:  noopMetrics{},
	}
}

// SetMetrics sets the recorder for retrieval counts.
func (r *RuleRetriever) SetMetrics(m driven.MetricsRecorder) {
	if m != nil {
		r.metrics = m
	}
}

// Retrieve embeds each query, searches collection and returns the unique
// passages ordered by ascending distance. Failing queries are skipped.
func (r *RuleRetriever) Retrieve(
	ctx context.Context, queries []string, ruleSet, collection string,
) []domain.RuleCandidate {
	rs := r.catalog.Resolve(ruleSet)
	if collection == "" {
		collection = rs.Collection
	}

	var filter *driven.MetadataFilter
	if rs.FilterByName {
		filter = &driven.MetadataFilter{Field: driven.MetaFramework, Op: driven.FilterEqual, Value: ruleSet}
	}

	seen := make(map[string]struct{})
	var (
		rules []domain.RuleCandidate
		raw   int
	)

	for _, q := range queries {
		vec, err := r.embedder.Embed(ctx, q)
		if err != nil || len(vec) == 0 {
			logger.Warn("Skipping query %q: embedding failed: %v", q, err)
			continue
		}

		hits, err := r.index.Search(ctx, driven.SearchQuery{
			Collection: collection, Vector: vec, K: r.topK, Filter: filter,
		})
		if err != nil && filter != nil {
			logger.Debug("Filtered search failed for %q, retrying unfiltered: %v", q, err)
			hits, err = r.index.Search(ctx, driven.SearchQuery{
				Collection: collection, Vector: vec, K: r.topK,
			})
		}
		if err != nil {
			logger.Warn("Skipping query %q: search failed: %v", q, err)
			continue
		}

		for _, hit := range hits {
			raw++
			if strings.TrimSpace(hit.Text) == "" {
				continue
			}
			fp := fingerprint(hit.Text)
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}

			id := hit.ID
			if id == "" {
				id = fp
			}
			rules = append(rules, domain.RuleCandidate{
				ID:       id,
				Text:     hit.Text,
				Source:   sourceLabel(hit.Metadata, ruleSet),
				RuleSet:  ruleSet,
				Distance: hit.Distance,
				Query:    q,
			})
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Distance < rules[j].Distance
	})

	r.metrics.ObserveRetrieval(ruleSet, raw, len(rules))
	logger.Debug("Retrieved %d unique rules for %s from %d hits", len(rules), ruleSet, raw)
	return rules
}

// fingerprint hashes the first 500 characters of text.
func fingerprint(text string) string {
	sum := md5.Sum([]byte(truncateRunes(text, fingerprintChars)))
	return hex.EncodeToString(sum[:])
}

// sourceLabel builds "standard | section | p.N | file" from hit metadata,
// falling back to the rule-set name.
func sourceLabel(meta map[string]string, ruleSet string) string {
	var parts []string
	if v := meta[driven.MetaStandardName]; v != "" {
		parts = append(parts, v)
	}
	section := meta[driven.MetaSectionPath]
	if section == "" {
		section = meta[driven.MetaSectionHeader]
	}
	if section != "" {
		parts = append(parts, section)
	}
	if v := meta[driven.MetaPageNumber]; v != "" && v != "0" {
		parts = append(parts, "p."+v)
	}
	if v := meta[driven.MetaSourceFile]; v != "" {
		parts = append(parts, v)
	}
	if len(parts) == 0 {
		return ruleSet
	}
	return strings.Join(parts, " | ")
}
