package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage processed documents",
	Long:  `List, inspect, or delete processed documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Long: `Removes a document and its stored chunks. Reports that reference the
document are kept, as are any vectors already in the index.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File:    %s\n", docs[i].Filename)
		cmd.Printf("    Status:  %s\n", docs[i].Status)
		if docs[i].LastScore != nil {
			cmd.Printf("    Score:   %.1f%%\n", *docs[i].LastScore)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	details, err := documentService.GetDetails(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document details: %w", err)
	}

	cmd.Printf("Document: %s\n\n", details.ID)
	cmd.Printf("  File:      %s\n", details.Filename)
	cmd.Printf("  Status:    %s\n", details.Status)
	cmd.Printf("  Type:      %s\n", details.Type)
	if details.Company != "" {
		cmd.Printf("  Company:   %s\n", details.Company)
	}
	if details.FiscalYear != "" {
		cmd.Printf("  Fiscal:    %s\n", details.FiscalYear)
	}
	cmd.Printf("  Elements:  %d\n", details.ElementCount)
	cmd.Printf("  Tables:    %d\n", details.TableCount)
	cmd.Printf("  Chunks:    %d\n", details.ChunkCount)
	if details.LastReportID != "" {
		cmd.Printf("  Report:    %s\n", details.LastReportID)
	}
	if details.LastScore != nil {
		cmd.Printf("  Score:     %.1f%%\n", *details.LastScore)
	}
	cmd.Printf("  Updated:   %s\n", details.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(details.Sections) > 0 {
		cmd.Println("\n  Sections:")
		cmd.Printf("    %s\n", strings.Join(details.Sections, "\n    "))
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document: %s\n", args[0])
	return nil
}
