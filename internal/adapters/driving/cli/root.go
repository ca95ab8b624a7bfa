// Package cli provides the cobra command tree for sercha-comply.
//
// Commands talk to core services through driving ports that are set once
// by the composition root with SetServices. Services that need reachable
// AI providers are built lazily through a RuntimeFactory so that reading
// reports or editing settings never pings a provider.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-comply/internal/logger"
)

// version is set at build time.
var version = "dev"

// Runtime holds the services that depend on AI providers and the vector index.
type Runtime struct {
	Compliance driving.ComplianceService
	Ingest     driving.IngestService

	// Close releases provider connections. Optional.
	Close func() error
}

// RuntimeFactory builds a Runtime on demand.
type RuntimeFactory func(ctx context.Context) (*Runtime, error)

// MetricsWriter exports collected metrics to a file.
type MetricsWriter interface {
	WriteTextfile(path string) error
}

// Normaliser turns raw file bytes into a processed document.
type Normaliser interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
	SupportedMIMETypes() []string
}

// Services bundles everything the command tree depends on.
type Services struct {
	Settings   driving.SettingsService
	Documents  driving.DocumentService
	Reports    driving.ReportService
	Runtime    RuntimeFactory
	Normaliser Normaliser
	Metrics    MetricsWriter
}

var (
	settingsService driving.SettingsService
	documentService driving.DocumentService
	reportService   driving.ReportService
	runtimeFactory  RuntimeFactory
	normaliser      Normaliser
	metricsWriter   MetricsWriter
)

// Persistent flags.
var (
	verbose     bool
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "sercha-comply",
	Short: "Regulatory compliance checks for financial documents",
	Long: `sercha-comply grades processed financial documents against regulatory
rule-sets. Rule passages are retrieved from a vector index, matched to
evidence in the document, and assessed one by one with an LLM.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "",
		"Write Prometheus metrics to this file after a run")
}

// SetServices wires the driving ports used by the commands.
func SetServices(s Services) {
	settingsService = s.Settings
	documentService = s.Documents
	reportService = s.Reports
	runtimeFactory = s.Runtime
	normaliser = s.Normaliser
	metricsWriter = s.Metrics
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openRuntime builds the provider-backed services. The returned release
// function is always safe to call.
func openRuntime(ctx context.Context) (*Runtime, func(), error) {
	if runtimeFactory == nil {
		return nil, func() {}, errors.New("compliance runtime not configured")
	}
	rt, err := runtimeFactory(ctx)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to initialise providers: %w", err)
	}
	release := func() {
		if rt.Close != nil {
			if err := rt.Close(); err != nil {
				logger.Warn("closing runtime: %v", err)
			}
		}
	}
	return rt, release, nil
}

// writeMetrics exports metrics when --metrics-file is set. Failures are
// logged and never fail the command.
func writeMetrics() {
	if metricsFile == "" || metricsWriter == nil {
		return
	}
	if err := metricsWriter.WriteTextfile(metricsFile); err != nil {
		logger.Warn("writing metrics: %v", err)
		return
	}
	logger.Debug("metrics written to %s", metricsFile)
}
