package domain

import (
	"regexp"
	"strings"
)

// Financial statement labels assigned to tables.
const (
	StatementBalanceSheet  = "balance_sheet"
	StatementProfitAndLoss = "profit_and_loss"
	StatementCashFlow      = "cash_flow"
	StatementNotes         = "notes"
	StatementScheduleIII   = "schedule_iii"
)

// statementPatterns is checked in order; the first category with a
// matching phrase wins.
var statementPatterns = []struct {
	label    string
	patterns []string
}{
	{StatementBalanceSheet, []string{"balance sheet", "statement of financial position", "assets and liabilities"}},
	{StatementProfitAndLoss, []string{
		"profit and loss", "statement of profit", "income statement",
		"statement of comprehensive income", "revenue from operations",
	}},
	{StatementCashFlow, []string{"cash flow", "statement of cash flows"}},
	{StatementNotes, []string{"notes to financial statements", "notes to accounts", "significant accounting policies"}},
	{StatementScheduleIII, []string{"schedule iii", "schedule 3"}},
}

// ClassifyFinancialStatement labels table text with a financial statement
// category, or returns "" when nothing matches.
func ClassifyFinancialStatement(text string) string {
	lower := strings.ToLower(text)
	for _, c := range statementPatterns {
		for _, p := range c.patterns {
			if strings.Contains(lower, p) {
				return c.label
			}
		}
	}
	return ""
}

var (
	fiscalRangePattern = regexp.MustCompile(`(?i)\b(?:FY|Financial Year)\s*(?:20)?(\d{2})\s*[-–/]\s*(?:20)?(\d{2})\b`)
	fiscalYearPattern  = regexp.MustCompile(`(?i)\b(?:FY|Financial Year)\s*(20\d{2})\b`)
)

// DetectFiscalYear finds the first fiscal year reference in text and
// returns it normalised as "FY2023-24" or "FY2024". Returns "" if none.
func DetectFiscalYear(text string) string {
	if m := fiscalRangePattern.FindStringSubmatch(text); m != nil {
		return "FY20" + m[1] + "-" + m[2]
	}
	if m := fiscalYearPattern.FindStringSubmatch(text); m != nil {
		return "FY" + m[1]
	}
	return ""
}
