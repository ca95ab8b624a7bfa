package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedRPM           = "embedding.requests_per_minute"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyLLMTemperature     = "llm.temperature"
	keyLLMMaxTokens       = "llm.max_tokens"
	keyLLMRPM             = "llm.requests_per_minute"
	keyVectorHost         = "vector_index.host"
	keyVectorScheme       = "vector_index.scheme"
	keyVectorAPIKey       = "vector_index.api_key"
	keyMaxConcurrent      = "engine.max_concurrent"
	keyTopK               = "engine.top_k"
	keyMaxRules           = "engine.max_rules_per_rule_set"
	keyMaxSectionText     = "engine.max_section_text"
	keyAssessDelayMS      = "engine.assess_delay_ms"
	keyRetryMaxAttempts   = "engine.retry.max_attempts"
	keyRetryBaseDelayMS   = "engine.retry.base_delay_ms"
	keyRetryMultiplier    = "engine.retry.multiplier"
	keyDefaultRuleSets    = "engine.default_rule_sets"
	keyChunkSize          = "chunking.chunk_size"
	keyChunkOverlap       = "chunking.overlap"
	keyChunkSplitter      = "chunking.splitter"
	keyEvidenceCollection = "collections.evidence"
	prefixFallbackQueries = "fallback_queries."
)

// ollamaBaseURL is Ollama's OpenAI-compatible endpoint.
const ollamaBaseURL = "http://localhost:11434/v1"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	engine := defaults.Engine

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerMinute: s.configStore.GetInt(keyEmbedRPM),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			Temperature:       float32(s.getFloat(keyLLMTemperature, float64(defaults.LLM.Temperature))),
			MaxTokens:         s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			RequestsPerMinute: s.configStore.GetInt(keyLLMRPM),
		},
		VectorIndex: domain.VectorIndexSettings{
			Host:   s.getString(keyVectorHost, defaults.VectorIndex.Host),
			Scheme: s.getString(keyVectorScheme, defaults.VectorIndex.Scheme),
			APIKey: s.configStore.GetString(keyVectorAPIKey),
		},
		Engine: domain.EngineSettings{
			MaxConcurrent:      s.getInt(keyMaxConcurrent, engine.MaxConcurrent),
			TopK:               s.getInt(keyTopK, engine.TopK),
			MaxRulesPerRuleSet: s.getInt(keyMaxRules, engine.MaxRulesPerRuleSet),
			MaxSectionText:     s.getInt(keyMaxSectionText, engine.MaxSectionText),
			AssessDelay:        s.getMillis(keyAssessDelayMS, engine.AssessDelay),
			Retry: domain.RetrySettings{
				MaxAttempts: s.getInt(keyRetryMaxAttempts, engine.Retry.MaxAttempts),
				BaseDelay:   s.getMillis(keyRetryBaseDelayMS, engine.Retry.BaseDelay),
				Multiplier:  s.getFloat(keyRetryMultiplier, engine.Retry.Multiplier),
			},
			EvidenceCollection: s.getString(keyEvidenceCollection, engine.EvidenceCollection),
			DefaultRuleSets:    s.getStrings(keyDefaultRuleSets, engine.DefaultRuleSets),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize: s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
			Splitter:  s.getString(keyChunkSplitter, defaults.Chunking.Splitter),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyVectorHost, settings.VectorIndex.Host},
		{keyVectorScheme, settings.VectorIndex.Scheme},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when set so a save never erases them.
	secrets := map[string]string{
		keyEmbedAPIKey:  settings.Embedding.APIKey,
		keyLLMAPIKey:    settings.LLM.APIKey,
		keyVectorAPIKey: settings.VectorIndex.APIKey,
	}
	for key, val := range secrets {
		if val == "" {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidConfig, provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidConfig, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidConfig, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidConfig, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// RuleSets returns the built-in catalog with fallback queries taken from
// the [fallback_queries] config table. Rule-sets that only appear in the
// config resolve to the regulatory frameworks collection.
func (s *SettingsService) RuleSets() ([]domain.RuleSet, error) {
	sets := domain.DefaultRuleSets()
	known := make(map[string]int, len(sets))
	for i, rs := range sets {
		known[rs.Name] = i
	}

	for _, key := range s.configStore.Keys(prefixFallbackQueries) {
		name := strings.TrimPrefix(key, prefixFallbackQueries)
		if name == "" || strings.Contains(name, ".") {
			continue
		}
		queries := nonEmpty(s.configStore.GetStringSlice(key))
		if i, ok := known[name]; ok {
			sets[i].FallbackQueries = queries
			continue
		}
		sets = append(sets, domain.RuleSet{
			Name:            name,
			Collection:      domain.CollectionRegulatoryFrameworks,
			FilterByName:    true,
			FallbackQueries: queries,
		})
		known[name] = len(sets) - 1
	}

	return sets, nil
}

// SeedFallbackQueries writes the built-in fallback queries for every
// rule-set missing from the config file.
func (s *SettingsService) SeedFallbackQueries() error {
	for _, rs := range domain.DefaultRuleSets() {
		key := prefixFallbackQueries + rs.Name
		if _, ok := s.configStore.Get(key); ok {
			continue
		}
		if err := s.configStore.Set(key, rs.FallbackQueries); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks that providers are configured and every rule-set has at
// least one fallback query.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrInvalidConfig, settings.Embedding.Provider))
	}
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: LLM provider %q is not configured",
			domain.ErrInvalidConfig, settings.LLM.Provider))
	}
	if settings.Engine.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("%w: engine.max_concurrent must be at least 1", domain.ErrInvalidConfig))
	}

	sets, err := s.RuleSets()
	if err != nil {
		return err
	}
	if err := NewRuleSetCatalog(sets).Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// ValidateVectorIndexConfig checks that the configured vector index is ready.
func (s *SettingsService) ValidateVectorIndexConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateVectorIndex(&settings.VectorIndex)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return defaultVal
	}
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Millisecond
}

func (s *SettingsService) getStrings(key string, defaultVal []string) []string {
	val := nonEmpty(s.configStore.GetStringSlice(key))
	if len(val) == 0 {
		return append([]string(nil), defaultVal...)
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := domain.AIProvider(s.configStore.GetString(key))
	if !val.IsValid() {
		return defaultVal
	}
	return val
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}

// baseURLFor returns the endpoint for provider. Cloud providers use the
// client default.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return ollamaBaseURL
	}
	return current
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
