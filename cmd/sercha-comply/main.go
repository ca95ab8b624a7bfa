// Command sercha-comply grades financial documents against regulatory rule-sets.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-comply/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-comply/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-comply/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/sercha-comply/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-comply/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-comply/internal/core/services"
	"github.com/custodia-labs/sercha-comply/internal/logger"
	"github.com/custodia-labs/sercha-comply/internal/normalisers"
	"github.com/custodia-labs/sercha-comply/internal/postprocessors"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

// homeEnv overrides the ~/.sercha-comply base directory.
const homeEnv = "SERCHA_COMPLY_HOME"

func main() {
	cleanup, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// baseDir returns the directory holding config, prompts and data.
func baseDir() (string, error) {
	if dir := os.Getenv(homeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".sercha-comply"), nil
}

// wire builds every adapter and service and hands them to the CLI.
func wire() (func(), error) {
	dir, err := baseDir()
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	if err := settingsService.SeedFallbackQueries(); err != nil {
		logger.Warn("seeding fallback queries: %v", err)
	}

	promptStore, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	docs := store.DocumentStore()
	reports := store.ReportStore()
	progress := store.ProgressStore()
	recorder := prometheus.NewRecorder()

	runtime := func(ctx context.Context) (*cli.Runtime, error) {
		settings, err := settingsService.Get()
		if err != nil {
			return nil, err
		}
		ruleSets, err := settingsService.RuleSets()
		if err != nil {
			return nil, err
		}
		chunker, err := postprocessors.NewChunker(settings.Chunking)
		if err != nil {
			return nil, err
		}

		catalog := services.NewRuleSetCatalog(ruleSets)
		if err := catalog.Validate(); err != nil {
			return nil, err
		}

		providers, err := ai.Initialise(ctx, settings)
		if err != nil {
			return nil, err
		}

		engine := services.NewComplianceEngine(services.EngineDeps{
			Documents: docs,
			Reports:   reports,
			Index:     providers.VectorIndex,
			Embedder:  providers.EmbeddingService,
			LLM:       providers.LLMService,
			Prompts:   promptStore,
			Metrics:   recorder,
			Catalog:   catalog,
			Settings:  settings.Engine,
		})

		return &cli.Runtime{
			Compliance: services.NewCompliancePipeline(engine, docs, progress),
			Ingest: services.NewIngestService(docs, chunker, providers.EmbeddingService,
				providers.VectorIndex, catalog, settings.Engine.EvidenceCollection),
			Close: func() error {
				providers.Close()
				return nil
			},
		}, nil
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings:   settingsService,
		Documents:  services.NewDocumentService(docs),
		Reports:    services.NewReportService(reports, progress),
		Runtime:    runtime,
		Normaliser: normalisers.NewDefaultRegistry(),
		Metrics:    recorder,
	})

	return func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing database: %v", err)
		}
	}, nil
}
