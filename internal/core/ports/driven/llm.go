// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides text generation for query planning, rule assessment
// and report summaries. It performs a single round-trip per call; callers
// own JSON-shape parsing and retry policy.
//
// Implementations may include:
//   - OpenAI (GPT-4.1, GPT-4o)
//   - Ollama (local models via the OpenAI-compatible endpoint)
type LLMService interface {
	// Generate produces a completion for a system and user prompt.
	// Rate-limit failures wrap domain.ErrRateLimited.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateRequest is a single generation request.
type GenerateRequest struct {
	// System is the system prompt. Optional.
	System string

	// Prompt is the user prompt.
	Prompt string

	// History holds earlier turns placed between the system and user prompt.
	History []ChatMessage

	// MaxTokens is the maximum number of tokens to generate. Zero uses the service default.
	MaxTokens int

	// Temperature controls randomness. Nil uses the service default.
	Temperature *float32
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// Temperature returns a pointer to t, for GenerateRequest.Temperature.
func Temperature(t float32) *float32 {
	return &t
}
