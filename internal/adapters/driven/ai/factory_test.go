package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openaiembed "github.com/custodia-labs/sercha-comply/internal/adapters/driven/embedding/openai"
	openaillm "github.com/custodia-labs/sercha-comply/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// fakeProvider serves the model list and embeddings endpoints of an
// OpenAI-compatible API.
func fakeProvider(t *testing.T, healthy bool) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"down"}}`))
			return
		}
		switch r.URL.Path {
		case "/v1/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"llama3.2","object":"model"}]}`))
		case "/v1/embeddings":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	assert.NotPanics(t, result.Close)
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured settings", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{name: "openai without key", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, wantNil: true},
		{name: "unknown provider", settings: &domain.EmbeddingSettings{Provider: "anthropic", APIKey: "k"}, wantNil: true},
		{name: "ollama", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama}},
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			defer svc.Close()
		})
	}
}

func TestCreateEmbeddingService_OllamaDefaults(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama})
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	svc, err := CreateLLMService(nil)
	require.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = CreateLLMService(&domain.LLMSettings{Provider: "unknown", APIKey: "k"})
	require.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama})
	require.NoError(t, err)
	require.IsType(t, &openaillm.LLMService{}, svc)
	assert.Equal(t, "llama3.2", svc.ModelName())

	svc, err = CreateLLMService(&domain.LLMSettings{
		Provider:    domain.AIProviderOpenAI,
		APIKey:      "k",
		Model:       "gpt-4.1",
		Temperature: 0.1,
		MaxTokens:   8192,
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", svc.ModelName())
}

func TestOllamaBaseURL(t *testing.T) {
	assert.Equal(t, DefaultOllamaBaseURL, ollamaBaseURL(""))
	assert.Equal(t, "http://gpu:11434/v1", ollamaBaseURL("http://gpu:11434"))
	assert.Equal(t, "http://gpu:11434/v1", ollamaBaseURL("http://gpu:11434/"))
	assert.Equal(t, "http://gpu:11434/v1", ollamaBaseURL("http://gpu:11434/v1"))
}

func TestCreateAndValidate_Reachable(t *testing.T) {
	server := fakeProvider(t, true)
	ctx := context.Background()

	llm, err := CreateAndValidateLLMService(ctx, &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})
	require.NoError(t, err)
	require.NotNil(t, llm)
	defer llm.Close()

	emb, err := CreateAndValidateEmbeddingService(ctx, &domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "k",
		BaseURL:  server.URL + "/v1",
		Model:    "custom-embedder",
	})
	require.NoError(t, err)
	require.IsType(t, &openaiembed.EmbeddingService{}, emb)
	assert.Equal(t, 2, emb.Dimensions())
}

func TestCreateAndValidate_Unreachable(t *testing.T) {
	server := fakeProvider(t, false)
	ctx := context.Background()

	_, err := CreateAndValidateLLMService(ctx, &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
	assert.Contains(t, err.Error(), "sercha-comply settings")

	_, err = CreateAndValidateEmbeddingService(ctx, &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))

	err = NewConfigValidator().ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL})
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
}

func TestCreateAndValidate_Unconfigured(t *testing.T) {
	ctx := context.Background()

	llm, err := CreateAndValidateLLMService(ctx, &domain.LLMSettings{})
	assert.NoError(t, err)
	assert.Nil(t, llm)

	emb, err := CreateAndValidateEmbeddingService(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, emb)
}

func TestInitialise_MissingProvider(t *testing.T) {
	settings := domain.DefaultAppSettings()

	_, err := Initialise(context.Background(), &settings)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))

	_, err = Initialise(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestCreateVectorIndex_NoHost(t *testing.T) {
	_, err := CreateVectorIndex(context.Background(), &domain.VectorIndexSettings{})
	assert.True(t, errors.Is(err, domain.ErrVectorIndexUnavailable))
}
