package driven

import "github.com/custodia-labs/sercha-comply/internal/core/domain"

// AIConfigValidator checks that configured providers are reachable.
// Settings that are not configured pass without a network call.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error

	// ValidateVectorIndex reports whether the vector database answers its
	// readiness probe.
	ValidateVectorIndex(config *domain.VectorIndexSettings) error
}
