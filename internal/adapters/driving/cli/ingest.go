package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-comply/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/assemble"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file|dir]",
	Short: "Ingest financial documents as evidence",
	Long: `Normalises a file into elements and tables, chunks it by section and
indexes the chunks as evidence. Re-ingesting the same file is idempotent.

Given a directory, every supported file below it is ingested. With --watch
the command keeps running and ingests files as they are added or changed.

Supported inputs are element JSON, HTML, Markdown and plain text.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestRulesCmd = &cobra.Command{
	Use:   "ingest-rules [rule-set] [file]",
	Short: "Index a regulatory source for a rule-set",
	Long: `Normalises a regulatory source document and indexes it into the
collection of the named rule-set, tagging every chunk with the rule-set.`,
	Args: cobra.ExactArgs(2),
	RunE: runIngestRules,
}

// Flags shared by the ingest commands.
var (
	ingestID         string
	ingestCompany    string
	ingestFiscalYear string
	ingestMIMEType   string
	ingestWatch      bool
)

func init() {
	for _, c := range []*cobra.Command{ingestCmd, ingestRulesCmd} {
		c.Flags().StringVar(&ingestID, "id", "", "Document ID (derived from the file when empty)")
		c.Flags().StringVar(&ingestMIMEType, "mime-type", "", "Override the detected MIME type")
	}
	ingestCmd.Flags().StringVar(&ingestCompany, "company", "", "Reporting company name")
	ingestCmd.Flags().StringVar(&ingestFiscalYear, "fiscal-year", "", "Fiscal year label (e.g. FY2024)")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "Keep watching a directory for new files")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(ingestRulesCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if info.IsDir() {
		return runIngestDir(cmd, args[0])
	}
	if ingestWatch {
		return errors.New("--watch requires a directory")
	}

	doc, err := loadDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	rt, release, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	if rt.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	n, err := rt.Ingest.Ingest(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}

	cmd.Printf("Ingested %s\n", doc.Filename)
	cmd.Printf("  ID:        %s\n", doc.ID)
	cmd.Printf("  Elements:  %d\n", len(doc.Elements))
	cmd.Printf("  Tables:    %d\n", len(doc.Tables))
	cmd.Printf("  Chunks:    %d\n", n)
	return nil
}

// runIngestDir ingests every supported file under dir and, with --watch,
// keeps ingesting changes until interrupted. A failing file is reported
// and skipped.
func runIngestDir(cmd *cobra.Command, dir string) error {
	if normaliser == nil {
		return errors.New("normaliser not configured")
	}
	if ingestID != "" {
		return errors.New("--id cannot be used with a directory")
	}

	rt, release, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	if rt.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	source := filesystem.New(dir, filesystem.WithMIMETypes(normaliser.SupportedMIMETypes()))
	defer source.Close()

	var ingested, failed int
	ingestOne := func(raw domain.RawDocument) {
		n, err := ingestRaw(ctx, rt, raw)
		if err != nil {
			failed++
			cmd.Printf("  FAILED %s: %v\n", raw.URI, err)
			return
		}
		ingested++
		cmd.Printf("  %s (%d chunks)\n", raw.URI, n)
	}

	docs, errs := source.Scan(ctx)
	for raw := range docs {
		ingestOne(raw)
	}
	if err := <-errs; err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	cmd.Printf("Ingested %d documents from %s (%d failed)\n", ingested, dir, failed)

	if !ingestWatch {
		return nil
	}

	watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes, err := source.Watch(watchCtx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", dir)
	for raw := range changes {
		ingestOne(raw)
	}
	return nil
}

// ingestRaw normalises and ingests one raw file with the metadata flags.
func ingestRaw(ctx context.Context, rt *Runtime, raw domain.RawDocument) (int, error) {
	raw.Metadata = metadataFlags()
	doc, err := normaliser.Normalise(ctx, &raw)
	if err != nil {
		return 0, err
	}
	return rt.Ingest.Ingest(ctx, doc)
}

func runIngestRules(cmd *cobra.Command, args []string) error {
	ruleSet := args[0]
	doc, err := loadDocument(cmd.Context(), args[1])
	if err != nil {
		return err
	}

	rt, release, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	if rt.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	n, err := rt.Ingest.IngestRules(cmd.Context(), ruleSet, doc)
	if err != nil {
		return fmt.Errorf("failed to ingest rules: %w", err)
	}

	cmd.Printf("Indexed %d chunks from %s into rule-set %s\n", n, doc.Filename, ruleSet)
	return nil
}

// loadDocument reads and normalises a file using the ingest flags.
func loadDocument(ctx context.Context, path string) (*domain.Document, error) {
	if normaliser == nil {
		return nil, errors.New("normaliser not configured")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := normaliser.Normalise(ctx, &domain.RawDocument{
		ID:       ingestID,
		URI:      path,
		MIMEType: ingestMIMEType,
		Content:  content,
		Metadata: metadataFlags(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to normalise %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

func metadataFlags() map[string]string {
	meta := map[string]string{}
	if ingestCompany != "" {
		meta[assemble.MetaCompany] = ingestCompany
	}
	if ingestFiscalYear != "" {
		meta[assemble.MetaFiscalYear] = ingestFiscalYear
	}
	return meta
}
