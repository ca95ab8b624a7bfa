// Package openai provides an embedding service adapter for
// OpenAI-compatible embedding APIs, including Ollama's /v1 endpoint.
package openai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-comply/internal/adapters/driven/openaicompat"
	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel     = "text-embedding-3-large"
	DefaultTimeout   = 60 * time.Second
	DefaultBatchSize = 100
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the embedding service.
type Config struct {
	// APIKey is the OpenAI API key. Required unless BaseURL points at a
	// server that needs none.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-large).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only sent to the API for text-embedding-3-* models.
	Dimensions int

	// BatchSize caps the texts sent per request (default: 100).
	BatchSize int

	// RequestsPerMinute paces requests. Zero disables pacing.
	RequestsPerMinute int
}

// EmbeddingService generates embeddings over the embeddings API.
type EmbeddingService struct {
	client        *openai.Client
	limiter       *rate.Limiter
	model         string
	batchSize     int
	requestedDims int

	mu         sync.RWMutex
	dimensions int
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > DefaultBatchSize {
		cfg.BatchSize = DefaultBatchSize
	}

	client, err := openaicompat.NewClient(openaicompat.ClientConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	svc := &EmbeddingService{
		client:     client,
		limiter:    openaicompat.NewLimiter(cfg.RequestsPerMinute),
		model:      cfg.Model,
		batchSize:  cfg.BatchSize,
		dimensions: modelDimensions[cfg.Model],
	}
	if cfg.Dimensions > 0 {
		svc.dimensions = cfg.Dimensions
		if strings.HasPrefix(cfg.Model, "text-embedding-3") {
			svc.requestedDims = cfg.Dimensions
		}
	}
	return svc, nil
}

// Embed generates a vector embedding for the given text.
// Blank text returns an empty vector without calling the API.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts, batchSize per request.
// Blank texts get empty vectors and are not sent.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	var pending []int
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			results[i] = []float32{}
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += s.batchSize {
		idx := pending[start:min(start+s.batchSize, len(pending))]
		if err := s.embedInto(ctx, texts, idx, results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// embedInto embeds texts[idx] in one request and stores them in results.
func (s *EmbeddingService) embedInto(ctx context.Context, texts []string, idx []int, results [][]float32) error {
	if err := openaicompat.Wait(ctx, s.limiter); err != nil {
		return err
	}

	input := make([]string, len(idx))
	for i, j := range idx {
		input[i] = texts[j]
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      input,
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.requestedDims,
	})
	if err != nil {
		return openaicompat.MapError("openai: embeddings", err, domain.ErrEmbeddingUnavailable)
	}
	if len(resp.Data) != len(input) {
		return fmt.Errorf("openai: %w: got %d embeddings for %d inputs",
			domain.ErrEmbeddingUnavailable, len(resp.Data), len(input))
	}

	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(idx) {
			return fmt.Errorf("openai: %w: embedding index %d out of range", domain.ErrEmbeddingUnavailable, d.Index)
		}
		results[idx[d.Index]] = d.Embedding
		s.learnDimensions(len(d.Embedding))
	}
	return nil
}

func (s *EmbeddingService) learnDimensions(n int) {
	s.mu.RLock()
	known := s.dimensions
	s.mu.RUnlock()
	if known != 0 || n == 0 {
		return
	}
	s.mu.Lock()
	s.dimensions = n
	s.mu.Unlock()
}

// Dimensions returns the embedding vector size. Unknown models report
// zero until the first embedding is returned.
func (s *EmbeddingService) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by embedding a short text.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
