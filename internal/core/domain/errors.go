package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the loaded configuration is unusable.
	// Raised at startup, e.g. when a rule-set has no fallback queries.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured or unreachable.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Assessment Errors.

	// ErrEmptyIndex indicates a rule-set collection holds no entries.
	// The rule-set is skipped, the run continues.
	ErrEmptyIndex = errors.New("collection is empty")

	// ErrUnparseable indicates a provider reply could not be parsed as JSON.
	ErrUnparseable = errors.New("unparseable provider response")

	// ErrNoContent indicates no text sections could be extracted from a document.
	ErrNoContent = errors.New("no extractable content")

	// ErrInvalidTransition indicates a run state change outside the state graph.
	ErrInvalidTransition = errors.New("invalid run state transition")

	// ErrDuplicateReport indicates a report with the same id was already stored.
	// Reports are append-only.
	ErrDuplicateReport = errors.New("report already exists")
)
