package driving

import "github.com/custodia-labs/sercha-comply/internal/core/domain"

// SettingsService reads and edits config.toml as typed settings.
type SettingsService interface {
	// Get applies defaults for every missing key.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetEmbeddingProvider and SetLLMProvider switch provider, model and key
	// together so a half-edited provider is never saved.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// RuleSets merges the built-in catalog with [fallback_queries].
	RuleSets() ([]domain.RuleSet, error)

	// Validate is an offline check: providers configured and every rule-set
	// has a fallback query. Errors wrap domain.ErrInvalidConfig.
	Validate() error

	// The Validate*Config methods make one network call each. Unconfigured
	// providers pass.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
	ValidateVectorIndexConfig() error
}
