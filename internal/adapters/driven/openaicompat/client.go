// Package openaicompat holds the client plumbing shared by the LLM and
// embedding adapters. Both OpenAI and Ollama are reached through the
// OpenAI-compatible REST API, so one client configuration, one pacing
// limiter and one error mapping serve every provider.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// localToken is sent to servers that ignore authentication, such as Ollama.
const localToken = "ollama"

// ClientConfig describes how to reach an OpenAI-compatible endpoint.
type ClientConfig struct {
	// APIKey authenticates against the API. Optional when BaseURL is set.
	APIKey string

	// BaseURL overrides the OpenAI endpoint, e.g. http://localhost:11434/v1.
	BaseURL string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// NewClient creates a go-openai client for cfg.
func NewClient(cfg ClientConfig) (*openai.Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: API key is required", domain.ErrInvalidConfig)
	}

	token := cfg.APIKey
	if token == "" {
		token = localToken
	}
	config := openai.DefaultConfig(token)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(config), nil
}

// NewLimiter returns a limiter allowing rpm requests per minute, or nil
// when rpm is not positive.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// Wait blocks until l allows a request. A nil limiter never blocks.
func Wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// MapError classifies a go-openai error. HTTP 429 wraps
// domain.ErrRateLimited; any other provider failure wraps unavailable.
// Context cancellation is passed through unchanged.
func MapError(op string, err error, unavailable error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRateLimited, err)
	}
	return fmt.Errorf("%s: %w: %w", op, unavailable, err)
}
