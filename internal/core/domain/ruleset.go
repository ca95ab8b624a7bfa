package domain

// Default collection names.
const (
	// CollectionRegulatoryFrameworks holds the indexed text of most rule-sets.
	CollectionRegulatoryFrameworks = "regulatory_frameworks"

	// CollectionDisclosureChecklists holds disclosure checklist items.
	CollectionDisclosureChecklists = "disclosure_checklists"

	// CollectionFinancialDocuments holds chunks of the documents under assessment.
	CollectionFinancialDocuments = "financial_documents"
)

// RuleSet is a named body of regulatory requirements backed by a collection.
type RuleSet struct {
	// Name is the rule-set identifier (e.g. "IndAS").
	Name string

	// Collection is the vector collection holding the rule text.
	Collection string

	// FilterByName restricts retrieval to entries tagged with this rule-set.
	// Collections dedicated to a single rule-set leave it off.
	FilterByName bool

	// Guidance is a short hint for query generation.
	Guidance string

	// FallbackQueries are used when query generation fails.
	FallbackQueries []string
}

// GenericFallbackQuery returns the single query used for an unknown rule-set.
func GenericFallbackQuery(name string) string {
	return "compliance requirements " + name
}

// RuleCandidate is a rule passage retrieved for assessment.
type RuleCandidate struct {
	// ID is the index entry identifier.
	ID string

	// Text is the passage body.
	Text string

	// Source is a best-effort human label (standard / section / page / file).
	Source string

	// RuleSet is the rule-set the passage belongs to.
	RuleSet string

	// Distance is the similarity distance, lower is more relevant.
	Distance float64

	// Query is the planner query that found the passage.
	Query string
}

// Evidence is the excerpt of the assessed document used as context for a rule.
type Evidence struct {
	// Excerpt is the joined text of the most relevant document chunks.
	Excerpt string

	// Location is a human label for where the excerpt came from (e.g. "p.4, p.7").
	Location string
}

// DefaultRuleSets returns the built-in rule-set catalog.
// Fallback queries are written to the config file on first use and
// read back from there afterwards.
func DefaultRuleSets() []RuleSet {
	return []RuleSet{
		{
			Name:         "IndAS",
			Collection:   CollectionRegulatoryFrameworks,
			FilterByName: true,
			Guidance: "Focus on presentation requirements (Ind AS 1), revenue recognition (115), " +
				"financial instruments (109), leases (116), related party (24), EPS (33), etc.",
			FallbackQueries: []string{
				"Presentation of financial statements required disclosures Ind AS 1",
				"Revenue recognition policies and disclosures Ind AS 115",
				"Financial instruments classification and measurement Ind AS 109",
				"Related party transactions disclosure requirements Ind AS 24",
				"Earnings per share calculation and disclosure Ind AS 33",
				"Lease accounting right of use assets Ind AS 116",
				"Employee benefits provisions disclosures Ind AS 19",
				"Impairment of assets testing requirements Ind AS 36",
			},
		},
		{
			Name:         "Schedule_III",
			Collection:   CollectionRegulatoryFrameworks,
			FilterByName: true,
			Guidance: "Balance sheet format, P&L format, disclosure of accounting policies, " +
				"notes format requirements.",
			FallbackQueries: []string{
				"Balance sheet format line items as per Schedule III",
				"Statement of profit and loss format Schedule III requirements",
				"Cash flow statement format direct or indirect method",
				"Notes to financial statements disclosure requirements",
				"Significant accounting policies disclosure",
				"General instructions for preparation of financial statements Schedule III",
			},
		},
		{
			Name:         "SEBI_LODR",
			Collection:   CollectionRegulatoryFrameworks,
			FilterByName: true,
			Guidance: "Corporate governance disclosures, quarterly results format, " +
				"related party transaction disclosures, board composition requirements.",
			FallbackQueries: []string{
				"Corporate governance compliance report SEBI LODR",
				"Related party transaction disclosure SEBI regulations",
				"Board composition independent directors requirement",
				"Audit committee composition and functions SEBI LODR",
				"Quarterly financial results submission format",
			},
		},
		{
			Name:         "RBI_Norms",
			Collection:   CollectionRegulatoryFrameworks,
			FilterByName: true,
			Guidance: "Prudential norms, NPA classification, provisioning requirements, " +
				"capital adequacy, asset classification.",
			FallbackQueries: []string{
				"Capital adequacy ratio disclosure RBI norms",
				"NPA classification and provisioning requirements",
				"Asset quality disclosure income recognition",
				"Liquidity coverage ratio disclosure requirements",
			},
		},
		{
			Name:         "ESG_BRSR",
			Collection:   CollectionRegulatoryFrameworks,
			FilterByName: true,
			Guidance: "BRSR core indicators, environmental metrics, social metrics, " +
				"governance indicators, principle-wise performance.",
			FallbackQueries: []string{
				"BRSR core framework essential indicators reporting",
				"Environmental performance metrics GHG emissions energy",
				"Social indicators employee wellbeing human rights",
				"Governance structure board diversity policies",
			},
		},
		{
			Name:         "Auditing_Standards",
			Collection:   CollectionRegulatoryFrameworks,
			FilterByName: true,
			Guidance: "Audit report format, key audit matters, going concern, " +
				"emphasis of matter, auditor responsibilities.",
			FallbackQueries: []string{
				"Independent auditor report format SA 700",
				"Key audit matters reporting SA 701",
				"Going concern assessment and reporting SA 570",
				"Emphasis of matter other matter paragraphs SA 706",
			},
		},
		{
			Name:         "Disclosure_Checklists",
			Collection:   CollectionDisclosureChecklists,
			FilterByName: false,
			Guidance:     "Specific disclosure items per Ind AS standard.",
			FallbackQueries: []string{
				"IndAS disclosure checklist mandatory items",
				"Financial statement disclosure completeness checklist",
				"Notes to accounts comprehensive disclosure requirements",
			},
		},
	}
}
