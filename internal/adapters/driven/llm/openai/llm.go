// Package openai provides an LLM service adapter for OpenAI-compatible
// chat completion APIs, including Ollama's /v1 endpoint.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-comply/internal/adapters/driven/openaicompat"
	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultLLMModel   = "gpt-4.1"
	DefaultLLMTimeout = 120 * time.Second
	DefaultMaxTokens  = 8192
)

// LLMConfig holds configuration for the LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key. Required unless BaseURL points at a
	// server that needs none.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the LLM model to use (default: gpt-4.1).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Temperature is used when a request sets none.
	Temperature float32

	// MaxTokens is used when a request sets none (default: 8192).
	MaxTokens int

	// RequestsPerMinute paces requests. Zero disables pacing.
	RequestsPerMinute int
}

// LLMService provides LLM operations over the chat completions API.
type LLMService struct {
	client      *openai.Client
	limiter     *rate.Limiter
	model       string
	temperature float32
	maxTokens   int
}

// NewLLMService creates a new LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	client, err := openaicompat.NewClient(openaicompat.ClientConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	return &LLMService{
		client:      client,
		limiter:     openaicompat.NewLimiter(cfg.RequestsPerMinute),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Generate sends one chat completion: the system prompt, any history,
// then the user prompt. A 429 from the provider wraps domain.ErrRateLimited.
func (s *LLMService) Generate(ctx context.Context, req driven.GenerateRequest) (string, error) {
	if err := openaicompat.Wait(ctx, s.limiter); err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	ccr := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}
	if req.Temperature != nil {
		ccr.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		ccr.MaxTokens = req.MaxTokens
	}

	resp, err := s.client.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return "", openaicompat.MapError("openai: chat completion", err, domain.ErrLLMUnavailable)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: no choices returned", domain.ErrLLMUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
// This checks the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return openaicompat.MapError("openai: ping", err, domain.ErrLLMUnavailable)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
