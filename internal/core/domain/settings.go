package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance, reached through its
	// OpenAI-compatible API.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// AllAIProviders returns the providers in menu order.
func AllAIProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (required for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RequestsPerMinute paces calls to the provider. Zero disables pacing.
	RequestsPerMinute int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (required for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Temperature is the default sampling temperature.
	Temperature float32

	// MaxTokens caps completion length.
	MaxTokens int

	// RequestsPerMinute paces calls to the provider. Zero disables pacing.
	RequestsPerMinute int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorIndexSettings holds vector database connection settings.
type VectorIndexSettings struct {
	// Host is the Weaviate host and port.
	Host string

	// Scheme is http or https.
	Scheme string

	// APIKey authenticates against a secured instance. Optional.
	APIKey string
}

// RetrySettings configures rate-limit backoff for assessment calls.
type RetrySettings struct {
	// MaxAttempts is the total number of provider calls per rule.
	MaxAttempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// Multiplier scales the delay after each retry.
	Multiplier float64
}

// EngineSettings holds the compliance engine tuning knobs.
type EngineSettings struct {
	// MaxConcurrent is the hard cap on in-flight assessment calls.
	MaxConcurrent int

	// TopK is the number of hits requested per retrieval query.
	TopK int

	// MaxRulesPerRuleSet caps the rules assessed per rule-set.
	MaxRulesPerRuleSet int

	// MaxSectionText caps the document context handed to a prompt.
	MaxSectionText int

	// AssessDelay is the fixed wait before each assessment call.
	AssessDelay time.Duration

	// Retry is the rate-limit backoff policy.
	Retry RetrySettings

	// EvidenceCollection holds the chunks of assessed documents.
	EvidenceCollection string

	// DefaultRuleSets are used when a run names none.
	DefaultRuleSets []string
}

// ChunkingSettings configures the section-aware chunker.
type ChunkingSettings struct {
	// ChunkSize is the narrative size budget in characters.
	ChunkSize int

	// Overlap is the character overlap between consecutive pieces.
	Overlap int

	// Splitter selects the narrative splitter: "recursive" or "langchaingo".
	Splitter string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// VectorIndex holds vector database settings.
	VectorIndex VectorIndexSettings

	// Engine holds compliance engine settings.
	Engine EngineSettings

	// Chunking holds chunker settings.
	Chunking ChunkingSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Provider API keys are left empty and must be configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    "text-embedding-3-large",
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       "gpt-4.1",
			Temperature: 0.1,
			MaxTokens:   8192,
		},
		VectorIndex: VectorIndexSettings{
			Host:   "localhost:8080",
			Scheme: "http",
		},
		Engine: DefaultEngineSettings(),
		Chunking: ChunkingSettings{
			ChunkSize: 1000,
			Overlap:   200,
			Splitter:  "recursive",
		},
	}
}

// DefaultEngineSettings returns the engine tuning used in production.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		MaxConcurrent:      2,
		TopK:               8,
		MaxRulesPerRuleSet: 15,
		MaxSectionText:     6000,
		AssessDelay:        3 * time.Second,
		Retry: RetrySettings{
			MaxAttempts: 4,
			BaseDelay:   5 * time.Second,
			Multiplier:  2,
		},
		EvidenceCollection: CollectionFinancialDocuments,
		DefaultRuleSets:    []string{"IndAS", "Schedule_III"},
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4.1",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-large",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
