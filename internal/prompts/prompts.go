// Package prompts holds the built-in LLM prompt templates.
//
// The file-backed prompt store seeds user-editable copies from these
// defaults, and services fall back to them when no store is configured.
package prompts

import (
	"sort"

	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// defaults maps prompt names to their templates.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaults = map[string]string{
	driven.PromptQueryPlan: `You are an expert Indian financial compliance auditor.

Given a %[1]s document with these sections: [%[2]s]

Generate 5-8 specific compliance verification queries for the framework: %[3]s

These queries will be used to search a vector database of regulatory rules.
Each query should be a specific, concrete requirement that needs to be checked.

IMPORTANT: Generate queries that are likely to find ACTUAL regulatory text.
Focus on mandatory disclosure requirements, presentation formats, and
specific provisions that financial documents must comply with.

Framework guidance: %[4]s

Return ONLY a JSON array of query strings, nothing else.
Example: ["Does the document disclose accounting policies as required by Ind AS 1 para 117-124?", ...]`,

	driven.PromptAssessSystem: `You are a meticulous Indian financial reporting compliance auditor performing a detailed regulatory compliance assessment. You MUST reason step by step before reaching your verdict. Be CRITICAL and THOROUGH: do NOT default to COMPLIANT unless you find clear, explicit evidence of compliance in the document. If the document does not explicitly address a requirement, mark it NON_COMPLIANT or PARTIALLY_COMPLIANT, not COMPLIANT. Always respond with valid JSON only, with no markdown fences and no commentary.`,

	driven.PromptAssessUser: `Assess whether this financial document complies with the regulatory requirement below.

REQUIREMENT (%[1]s):
Source: %[3]s
%[4]s

DOCUMENT (%[2]s):
%[5]s

TABLES:
%[6]s

RULES:
- Do NOT default to COMPLIANT. Require EXPLICIT evidence.
- If the document doesn't address the requirement, answer NON_COMPLIANT.
- Quote exact evidence text from the document.

JSON response:
{
    "status": "COMPLIANT|NON_COMPLIANT|PARTIALLY_COMPLIANT|NOT_APPLICABLE|UNABLE_TO_DETERMINE",
    "confidence": 0.0,
    "evidence": "quoted text or 'No evidence found'",
    "evidence_location": "section/page",
    "explanation": "1) Rule requires... 2) Document shows/lacks... 3) Therefore...",
    "recommendations": "actions if non-compliant"
}`,

	driven.PromptExecutiveSummary: `Write a 200-300 word executive summary for this compliance report.

Document: %[1]s
Company: %[2]s
Fiscal Year: %[3]s
Frameworks Tested: %[4]s

Overall Compliance Score: %[5]s%%
Total Rules Checked: %[6]d
Compliant: %[7]d
Non-Compliant: %[8]d
Partially Compliant: %[9]d
Not Applicable: %[10]d

Key Non-Compliance Findings:
%[11]s

Key Partial-Compliance Findings:
%[12]s

Include: key findings, critical non-compliance areas, and actionable recommendations.`,
}

// SummarySystem is the fixed system prompt for executive summaries.
const SummarySystem = "You are a senior compliance auditor writing an executive summary. " +
	"Be precise, cite specific standards, and highlight critical findings."

// Default returns the built-in template for name.
func Default(name string) (string, bool) {
	p, ok := defaults[name]
	return p, ok
}

// Names returns the names of all built-in templates in sorted order.
func Names() []string {
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
