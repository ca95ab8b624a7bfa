package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ruleSetsCmd = &cobra.Command{
	Use:   "rulesets",
	Short: "List the known rule-sets",
	Long: `Lists every rule-set with its backing collection and the number of
fallback queries used when query generation fails.`,
	Args: cobra.NoArgs,
	RunE: runRuleSets,
}

func init() {
	rootCmd.AddCommand(ruleSetsCmd)
}

func runRuleSets(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	sets, err := settingsService.RuleSets()
	if err != nil {
		return fmt.Errorf("failed to load rule-sets: %w", err)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	defaults := make(map[string]bool, len(settings.Engine.DefaultRuleSets))
	for _, name := range settings.Engine.DefaultRuleSets {
		defaults[name] = true
	}

	for _, rs := range sets {
		marker := ""
		if defaults[rs.Name] {
			marker = " (default)"
		}
		cmd.Printf("  %s%s\n", rs.Name, marker)
		cmd.Printf("    Collection:  %s\n", rs.Collection)
		if rs.FilterByName {
			cmd.Printf("    Filter:      framework = %s\n", rs.Name)
		}
		cmd.Printf("    Fallbacks:   %d queries\n", len(rs.FallbackQueries))
		cmd.Println()
	}

	cmd.Printf("Total: %d rule-sets\n", len(sets))
	return nil
}
