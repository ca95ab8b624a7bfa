package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the
	// embedded default or an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptQueryPlan asks for compliance verification queries.
	// Placeholders: %[1]s document type, %[2]s section names,
	// %[3]s rule-set name, %[4]s rule-set guidance.
	PromptQueryPlan = "query_plan"

	// PromptAssessSystem is the system prompt for chain-of-reasoning verdicts.
	// This prompt has no format placeholders.
	PromptAssessSystem = "assess_system"

	// PromptAssessUser carries one rule and its evidence.
	// Placeholders: %[1]s rule-set, %[2]s document type, %[3]s rule source,
	// %[4]s rule text, %[5]s document excerpt, %[6]s table excerpt.
	PromptAssessUser = "assess_user"

	// PromptExecutiveSummary asks for the report narrative.
	// Placeholders: %[1]s document, %[2]s company, %[3]s fiscal year,
	// %[4]s rule-sets, %[5]s score, %[6]d total, %[7]d compliant,
	// %[8]d non-compliant, %[9]d partial, %[10]d not applicable,
	// %[11]s non-compliant findings, %[12]s partial findings.
	PromptExecutiveSummary = "executive_summary"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use the embedded default prompts.
	SetPromptStore(store PromptStore)
}
