package services

import (
	"fmt"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// RuleSetCatalog resolves rule-set names to their collection, filter mode
// and fallback queries.
type RuleSetCatalog struct {
	sets  map[string]domain.RuleSet
	order []string
}

// NewRuleSetCatalog creates a catalog. Later entries replace earlier ones
// with the same name.
func NewRuleSetCatalog(sets []domain.RuleSet) *RuleSetCatalog {
	c := &RuleSetCatalog{sets: make(map[string]domain.RuleSet, len(sets))}
	for _, rs := range sets {
		if _, ok := c.sets[rs.Name]; !ok {
			c.order = append(c.order, rs.Name)
		}
		c.sets[rs.Name] = rs
	}
	return c
}

// Resolve returns the rule-set named name. Unknown names resolve to the
// regulatory frameworks collection, filtered by name, with a generic
// fallback query.
func (c *RuleSetCatalog) Resolve(name string) domain.RuleSet {
	if rs, ok := c.sets[name]; ok {
		return rs
	}
	return domain.RuleSet{
		Name:            name,
		Collection:      domain.CollectionRegulatoryFrameworks,
		FilterByName:    true,
		FallbackQueries: []string{domain.GenericFallbackQuery(name)},
	}
}

// Known reports whether name is in the catalog.
func (c *RuleSetCatalog) Known(name string) bool {
	_, ok := c.sets[name]
	return ok
}

// FallbackQueries returns the static queries for name.
func (c *RuleSetCatalog) FallbackQueries(name string) []string {
	rs := c.Resolve(name)
	if len(rs.FallbackQueries) == 0 {
		return []string{domain.GenericFallbackQuery(name)}
	}
	return append([]string(nil), rs.FallbackQueries...)
}

// All returns the rule-sets in registration order.
func (c *RuleSetCatalog) All() []domain.RuleSet {
	out := make([]domain.RuleSet, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.sets[name])
	}
	return out
}

// Names returns the rule-set names in registration order.
func (c *RuleSetCatalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Validate checks that every rule-set has a collection and at least one
// fallback query.
func (c *RuleSetCatalog) Validate() error {
	for _, name := range c.order {
		rs := c.sets[name]
		if rs.Collection == "" {
			return fmt.Errorf("%w: rule-set %q has no collection", domain.ErrInvalidConfig, name)
		}
		if len(rs.FallbackQueries) == 0 {
			return fmt.Errorf("%w: rule-set %q has no fallback queries", domain.ErrInvalidConfig, name)
		}
	}
	return nil
}
