// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaiembed "github.com/custodia-labs/sercha-comply/internal/adapters/driven/embedding/openai"
	openaillm "github.com/custodia-labs/sercha-comply/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-comply/internal/adapters/driven/vector/weaviate"
	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// DefaultOllamaBaseURL is Ollama's OpenAI-compatible endpoint.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// settingsHint is appended to configuration errors.
const settingsHint = "Run 'sercha-comply settings' to review the configuration"

// InitResult holds the providers a compliance run needs.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorIndex      driven.VectorIndex
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise creates and validates every provider in settings.
// Any unconfigured or unreachable provider is an error; nothing is
// returned half-built.
func Initialise(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no settings", domain.ErrInvalidConfig)
	}

	result := &InitResult{}
	var err error

	result.LLMService, err = CreateAndValidateLLMService(ctx, &settings.LLM)
	if err == nil && result.LLMService == nil {
		err = fmt.Errorf("%w: provider %q is not configured. %s", domain.ErrLLMUnavailable, settings.LLM.Provider, settingsHint)
	}
	if err != nil {
		result.Close()
		return nil, err
	}

	result.EmbeddingService, err = CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err == nil && result.EmbeddingService == nil {
		err = fmt.Errorf("%w: provider %q is not configured. %s", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider, settingsHint)
	}
	if err != nil {
		result.Close()
		return nil, err
	}

	result.VectorIndex, err = CreateVectorIndex(ctx, &settings.VectorIndex)
	if err != nil {
		result.Close()
		return nil, fmt.Errorf("%w. %s", err, settingsHint)
	}

	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error when the provider is not configured.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, unreachable(domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns nil without error when the provider is not configured.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, unreachable(domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// unreachable wraps a ping failure. Ping errors from the adapters
// already carry the sentinel, so it is only added when missing.
func unreachable(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return fmt.Errorf("service unreachable: %w. %s", err, settingsHint)
	}
	return fmt.Errorf("%w: service unreachable (%w). %s", sentinel, err, settingsHint)
}

// CreateEmbeddingService creates the embedding service for settings.
// Both providers speak the OpenAI embeddings API; Ollama through its /v1 endpoint.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	cfg := openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        domain.EmbeddingDimensions()[settings.Model],
		RequestsPerMinute: settings.RequestsPerMinute,
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		cfg.BaseURL = ollamaBaseURL(settings.BaseURL)
		if cfg.Model == "" {
			cfg.Model = domain.DefaultEmbeddingModels()[domain.AIProviderOllama]
			cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
		}
	case domain.AIProviderOpenAI:
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}

	svc, err := openaiembed.NewEmbeddingService(cfg)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateLLMService creates the LLM service for settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	cfg := openaillm.LLMConfig{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Temperature:       settings.Temperature,
		MaxTokens:         settings.MaxTokens,
		RequestsPerMinute: settings.RequestsPerMinute,
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		cfg.BaseURL = ollamaBaseURL(settings.BaseURL)
		if cfg.Model == "" {
			cfg.Model = domain.DefaultLLMModels()[domain.AIProviderOllama]
		}
	case domain.AIProviderOpenAI:
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}

	svc, err := openaillm.NewLLMService(cfg)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateVectorIndex connects to the Weaviate instance in settings.
func CreateVectorIndex(ctx context.Context, settings *domain.VectorIndexSettings) (driven.VectorIndex, error) {
	if settings == nil || settings.Host == "" {
		return nil, fmt.Errorf("%w: no vector index host", domain.ErrVectorIndexUnavailable)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	idx, err := weaviate.New(pingCtx, weaviate.Config{
		Host:   settings.Host,
		Scheme: settings.Scheme,
		APIKey: settings.APIKey,
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// ollamaBaseURL points a bare Ollama host at its OpenAI-compatible path.
func ollamaBaseURL(baseURL string) string {
	if baseURL == "" {
		return DefaultOllamaBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL
}
