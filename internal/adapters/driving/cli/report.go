package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "View compliance reports",
}

var reportShowCmd = &cobra.Command{
	Use:   "show [report-id]",
	Short: "Show a report and its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

var reportListCmd = &cobra.Command{
	Use:   "list [doc-id]",
	Short: "List reports, optionally for one document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportList,
}

var progressCmd = &cobra.Command{
	Use:   "progress [job-id]",
	Short: "Show the progress of a compliance job",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

// Flags for report show.
var (
	reportJSON    bool
	reportResults bool
)

func init() {
	reportShowCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the full report as JSON")
	reportShowCmd.Flags().BoolVar(&reportResults, "results", false, "Print every rule result")

	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportListCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(progressCmd)
}

func runReportShow(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	report, err := reportService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}

	if reportJSON {
		return printJSON(cmd, report)
	}

	printReport(cmd, report)
	if !reportResults {
		return nil
	}

	cmd.Println()
	cmd.Println("  Results:")
	for i := range report.Results {
		r := &report.Results[i]
		cmd.Printf("\n    [%s] %s (%s)\n", r.Verdict, r.RuleID, r.RuleSet)
		cmd.Printf("      Rule:        %s\n", r.RuleText)
		cmd.Printf("      Confidence:  %.2f\n", r.Confidence)
		if r.EvidenceLocation != "" {
			cmd.Printf("      Location:    %s\n", r.EvidenceLocation)
		}
		if r.Explanation != "" {
			cmd.Printf("      Explanation: %s\n", r.Explanation)
		}
		if r.Recommendation != "" {
			cmd.Printf("      Fix:         %s\n", r.Recommendation)
		}
	}
	return nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	var documentID string
	if len(args) == 1 {
		documentID = args[0]
	}

	summaries, err := reportService.List(cmd.Context(), documentID)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	if len(summaries) == 0 {
		cmd.Println("No reports found")
		return nil
	}

	for i := range summaries {
		s := &summaries[i]
		cmd.Printf("  %s\n", s.ID)
		cmd.Printf("    Document:  %s (%s)\n", s.DocumentName, s.DocumentID)
		cmd.Printf("    Score:     %.1f%% over %d rules\n", s.Score, s.TotalRulesChecked)
		cmd.Printf("    State:     %s\n", s.State)
		cmd.Printf("    Generated: %s\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d reports\n", len(summaries))
	return nil
}

func runProgress(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	record, err := reportService.Progress(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get progress: %w", err)
	}

	cmd.Printf("Job: %s\n\n", record.JobID)
	cmd.Printf("  Document:  %s\n", record.DocumentID)
	cmd.Printf("  Status:    %s\n", record.Status)
	cmd.Printf("  Progress:  %d%%\n", record.Percent)
	cmd.Printf("  Step:      %s\n", record.Step)
	if record.ReportID != "" {
		cmd.Printf("  Report:    %s\n", record.ReportID)
	}
	if record.Error != "" {
		cmd.Printf("  Error:     %s\n", record.Error)
	}
	cmd.Printf("  Updated:   %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
