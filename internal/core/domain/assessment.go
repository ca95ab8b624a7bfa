package domain

import (
	"math"
	"strings"
)

// Verdict is the compliance outcome for a (document, rule) pair.
type Verdict string

// Available verdicts.
const (
	VerdictCompliant          Verdict = "COMPLIANT"
	VerdictNonCompliant       Verdict = "NON_COMPLIANT"
	VerdictPartiallyCompliant Verdict = "PARTIALLY_COMPLIANT"
	VerdictNotApplicable      Verdict = "NOT_APPLICABLE"
	VerdictUnableToDetermine  Verdict = "UNABLE_TO_DETERMINE"
)

// ParseVerdict maps a raw provider status onto a Verdict.
// Matching is case-insensitive and tolerates spaces or hyphens in place
// of underscores. Anything unrecognised is UNABLE_TO_DETERMINE.
func ParseVerdict(raw string) Verdict {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch v := Verdict(s); v {
	case VerdictCompliant, VerdictNonCompliant, VerdictPartiallyCompliant,
		VerdictNotApplicable, VerdictUnableToDetermine:
		return v
	default:
		return VerdictUnableToDetermine
	}
}

// IsScorable returns true if the verdict counts toward the numeric score.
func (v Verdict) IsScorable() bool {
	return v == VerdictCompliant || v == VerdictNonCompliant || v == VerdictPartiallyCompliant
}

// String returns the string representation.
func (v Verdict) String() string {
	return string(v)
}

// AssessmentResult is the verdict record for one rule against one document.
// Results are created once per run and never mutated.
type AssessmentResult struct {
	RuleID           string  `json:"rule_id"`
	RuleText         string  `json:"rule_text"`
	RuleSource       string  `json:"rule_source"`
	RuleSet          string  `json:"framework"`
	Verdict          Verdict `json:"status"`
	Confidence       float64 `json:"confidence"`
	Evidence         string  `json:"evidence"`
	EvidenceLocation string  `json:"evidence_location"`
	Explanation      string  `json:"explanation"`
	Recommendation   string  `json:"recommendations,omitempty"`
}

// VerdictCounts tallies results per verdict.
type VerdictCounts struct {
	Compliant     int `json:"compliant_count"`
	NonCompliant  int `json:"non_compliant_count"`
	Partial       int `json:"partially_compliant_count"`
	NotApplicable int `json:"not_applicable_count"`
	Undetermined  int `json:"unable_to_determine_count"`
}

// CountVerdicts tallies a result list.
func CountVerdicts(results []AssessmentResult) VerdictCounts {
	var c VerdictCounts
	for i := range results {
		c.Add(results[i].Verdict)
	}
	return c
}

// Add increments the counter for v.
func (c *VerdictCounts) Add(v Verdict) {
	switch v {
	case VerdictCompliant:
		c.Compliant++
	case VerdictNonCompliant:
		c.NonCompliant++
	case VerdictPartiallyCompliant:
		c.Partial++
	case VerdictNotApplicable:
		c.NotApplicable++
	default:
		c.Undetermined++
	}
}

// Total returns the number of results counted.
func (c VerdictCounts) Total() int {
	return c.Compliant + c.NonCompliant + c.Partial + c.NotApplicable + c.Undetermined
}

// Scorable returns the number of results that count toward the score.
func (c VerdictCounts) Scorable() int {
	return c.Compliant + c.NonCompliant + c.Partial
}

// Score returns the overall compliance score in [0, 100], rounded to two
// decimals. Partial compliance counts half. When nothing is scorable the
// score is 0, never 100.
func (c VerdictCounts) Score() float64 {
	scorable := c.Scorable()
	if scorable == 0 {
		return 0
	}
	score := (float64(c.Compliant) + 0.5*float64(c.Partial)) / float64(scorable) * 100
	return Round(score, 2)
}

// ClampConfidence bounds a confidence value into [0, 1] and rounds it
// to three decimals. NaN becomes 0.
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return Round(math.Max(0, math.Min(1, v)), 3)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
