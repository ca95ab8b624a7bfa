package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driving"
)

var checkCmd = &cobra.Command{
	Use:   "check [doc-id]",
	Short: "Run a compliance check on a document",
	Long: `Grades a processed document against one or more rule-sets and stores
the resulting report. Without --rule-sets the configured defaults are used.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// Flags for the check command.
var (
	checkRuleSets []string
	checkSections []string
	checkJobID    string
	checkJSON     bool
)

func init() {
	checkCmd.Flags().StringSliceVarP(&checkRuleSets, "rule-sets", "r", nil, "Rule-sets to test (comma separated)")
	checkCmd.Flags().StringSliceVarP(&checkSections, "sections", "s", nil, "Only assess these sections")
	checkCmd.Flags().StringVar(&checkJobID, "job-id", "", "Job ID for the persisted progress record")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the full report as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	rt, release, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer release()
	defer writeMetrics()

	if rt.Compliance == nil {
		return errors.New("compliance service not configured")
	}

	req := driving.CheckRequest{
		DocumentID:    args[0],
		RuleSets:      checkRuleSets,
		SectionFilter: checkSections,
		JobID:         checkJobID,
	}
	if !checkJSON {
		req.Progress = driven.ProgressFunc(func(step string, percent int) {
			cmd.Printf("  [%3d%%] %s\n", percent, step)
		})
	}

	report, err := rt.Compliance.RunComplianceCheck(cmd.Context(), req)
	if report != nil {
		if checkJSON {
			if perr := printJSON(cmd, report); perr != nil {
				return perr
			}
		} else {
			printReport(cmd, report)
		}
	}
	if err != nil {
		return fmt.Errorf("compliance check failed: %w", err)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.ComplianceReport) {
	cmd.Println()
	cmd.Printf("Compliance Report: %s\n\n", displayID(report.ID))
	cmd.Printf("  Document:   %s (%s)\n", report.DocumentName, report.DocumentID)
	if report.Company != "" {
		cmd.Printf("  Company:    %s\n", report.Company)
	}
	if report.FiscalYear != "" {
		cmd.Printf("  Fiscal:     %s\n", report.FiscalYear)
	}
	cmd.Printf("  Rule-sets:  %s\n", strings.Join(report.RuleSets, ", "))
	cmd.Printf("  State:      %s\n", report.State)
	cmd.Printf("  Score:      %.1f%%\n", report.Score)
	cmd.Printf("  Rules:      %d checked\n", report.TotalRulesChecked)
	cmd.Printf("  Duration:   %s\n", report.ProcessingTime.Round(time.Millisecond))
	cmd.Println()

	c := report.Counts
	cmd.Println("  Verdicts:")
	cmd.Printf("    compliant:            %d\n", c.Compliant)
	cmd.Printf("    non-compliant:        %d\n", c.NonCompliant)
	cmd.Printf("    partially compliant:  %d\n", c.Partial)
	cmd.Printf("    not applicable:       %d\n", c.NotApplicable)
	cmd.Printf("    unable to determine:  %d\n", c.Undetermined)

	if report.Summary != "" {
		cmd.Println()
		cmd.Println("  Summary:")
		cmd.Printf("    %s\n", report.Summary)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// displayID renders an empty ID, which marks an unpersisted report.
func displayID(id string) string {
	if id == "" {
		return "(not saved)"
	}
	return id
}
