package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [doc-id...]",
	Short: "Check several documents in sequence",
	Long: `Runs a compliance check on each document in turn. A failing document
is recorded in the summary and never stops the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var batchRuleSets []string

func init() {
	batchCmd.Flags().StringSliceVarP(&batchRuleSets, "rule-sets", "r", nil, "Rule-sets to test (comma separated)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	rt, release, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer release()
	defer writeMetrics()

	if rt.Compliance == nil {
		return errors.New("compliance service not configured")
	}

	cmd.Printf("Checking %d documents...\n", len(args))
	summary, err := rt.Compliance.RunBatch(cmd.Context(), args, batchRuleSets)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	cmd.Println()
	cmd.Println("Batch Summary")
	cmd.Println("=============")
	cmd.Printf("  Total:      %d\n", summary.Total)
	cmd.Printf("  Completed:  %d\n", summary.Completed)
	cmd.Printf("  Failed:     %d\n", summary.Failed)
	cmd.Printf("  Duration:   %s\n", summary.ProcessingTime.Round(time.Millisecond))

	if len(summary.ReportIDs) > 0 {
		cmd.Println("\n  Reports:")
		for _, id := range summary.ReportIDs {
			cmd.Printf("    %s\n", id)
		}
	}
	if len(summary.Errors) > 0 {
		cmd.Println("\n  Errors:")
		for _, e := range summary.Errors {
			cmd.Printf("    %s: %s\n", e.DocumentID, e.Error)
		}
	}
	return nil
}
