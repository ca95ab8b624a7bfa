package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-comply/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// mockAIValidator records which configs were validated.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	vectorErr    error
	embedding    *domain.EmbeddingSettings
	llm          *domain.LLMSettings
	vector       *domain.VectorIndexSettings
}

func (m *mockAIValidator) ValidateEmbedding(s *domain.EmbeddingSettings) error {
	m.embedding = s
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(s *domain.LLMSettings) error {
	m.llm = s
	return m.llmErr
}

func (m *mockAIValidator) ValidateVectorIndex(s *domain.VectorIndexSettings) error {
	m.vector = s
	return m.vectorErr
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
	assert.Equal(t, defaults.Embedding.Model, settings.Embedding.Model)
	assert.Equal(t, defaults.Engine, settings.Engine)
	assert.Equal(t, defaults.Chunking, settings.Chunking)
	assert.Equal(t, "localhost:8080", settings.VectorIndex.Host)
}

func TestSettingsService_Get_ReadsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("llm.temperature", 0.3))
	require.NoError(t, store.Set("engine.max_concurrent", int64(4)))
	require.NoError(t, store.Set("engine.assess_delay_ms", int64(250)))
	require.NoError(t, store.Set("engine.retry.multiplier", 3.0))
	require.NoError(t, store.Set("engine.default_rule_sets", []any{"SEBI_LODR", " "}))
	require.NoError(t, store.Set("chunking.splitter", "langchaingo"))

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.InDelta(t, 0.3, float64(settings.LLM.Temperature), 0.0001)
	assert.Equal(t, 4, settings.Engine.MaxConcurrent)
	assert.Equal(t, 250*time.Millisecond, settings.Engine.AssessDelay)
	assert.InDelta(t, 3.0, settings.Engine.Retry.Multiplier, 0.0001)
	assert.Equal(t, []string{"SEBI_LODR"}, settings.Engine.DefaultRuleSets)
	assert.Equal(t, "langchaingo", settings.Chunking.Splitter)
}

func TestSettingsService_Get_ZeroDelayIsKept(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("engine.assess_delay_ms", int64(0)))

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), settings.Engine.AssessDelay)
	assert.Equal(t, 5*time.Second, settings.Engine.Retry.BaseDelay)
}

func TestSettingsService_Get_InvalidProviderFallsBack(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("llm.provider", "acme-ai"))

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.LLM.Provider)
}

func TestSettingsService_Save_KeepsAPIKeys(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	require.NoError(t, store.Set("llm.api_key", "sk-existing"))

	settings, err := service.Get()
	require.NoError(t, err)
	settings.LLM.APIKey = ""
	settings.LLM.Model = "gpt-4.1-mini"
	require.NoError(t, service.Save(settings))

	assert.Equal(t, "sk-existing", store.GetString("llm.api_key"))
	assert.Equal(t, "gpt-4.1-mini", store.GetString("llm.model"))
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	t.Run("ollama gets the local endpoint", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := NewSettingsService(store, nil)

		require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
		assert.Equal(t, "llama3.2", settings.LLM.Model)
		assert.Equal(t, "http://localhost:11434/v1", settings.LLM.BaseURL)
	})

	t.Run("openai requires a key", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		err := service.SetLLMProvider(domain.AIProviderOpenAI, "", "")
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	})

	t.Run("unknown provider", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)
		err := service.SetLLMProvider("acme-ai", "", "key")
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	})
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Empty(t, settings.Embedding.BaseURL)
}

func TestSettingsService_RuleSets(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("fallback_queries.IndAS", []any{"related party disclosures"}))
	require.NoError(t, store.Set("fallback_queries.Internal_Policy", []any{"board approval", ""}))

	sets, err := NewSettingsService(store, nil).RuleSets()
	require.NoError(t, err)
	require.Len(t, sets, len(domain.DefaultRuleSets())+1)

	assert.Equal(t, "IndAS", sets[0].Name)
	assert.Equal(t, []string{"related party disclosures"}, sets[0].FallbackQueries)

	extra := sets[len(sets)-1]
	assert.Equal(t, "Internal_Policy", extra.Name)
	assert.Equal(t, domain.CollectionRegulatoryFrameworks, extra.Collection)
	assert.True(t, extra.FilterByName)
	assert.Equal(t, []string{"board approval"}, extra.FallbackQueries)
}

func TestSettingsService_SeedFallbackQueries(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("fallback_queries.IndAS", []any{"custom"}))
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SeedFallbackQueries())

	assert.Len(t, store.Keys("fallback_queries."), len(domain.DefaultRuleSets()))
	assert.Equal(t, []string{"custom"}, store.GetStringSlice("fallback_queries.IndAS"))
	assert.NotEmpty(t, store.GetStringSlice("fallback_queries.Schedule_III"))
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("missing api keys", func(t *testing.T) {
		err := NewSettingsService(memory.NewConfigStore(), nil).Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
		assert.Contains(t, err.Error(), "embedding provider")
		assert.Contains(t, err.Error(), "LLM provider")
	})

	t.Run("empty fallback queries", func(t *testing.T) {
		store := memory.NewConfigStore()
		require.NoError(t, store.Set("llm.api_key", "sk"))
		require.NoError(t, store.Set("embedding.api_key", "sk"))
		require.NoError(t, store.Set("fallback_queries.RBI_Norms", []any{}))

		err := NewSettingsService(store, nil).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RBI_Norms")
	})

	t.Run("valid", func(t *testing.T) {
		store := memory.NewConfigStore()
		require.NoError(t, store.Set("llm.api_key", "sk"))
		require.NoError(t, store.Set("embedding.api_key", "sk"))

		assert.NoError(t, NewSettingsService(store, nil).Validate())
	})
}

func TestSettingsService_ValidateProviders(t *testing.T) {
	validator := &mockAIValidator{llmErr: domain.ErrLLMUnavailable}
	service := NewSettingsService(memory.NewConfigStore(), validator)

	require.NoError(t, service.ValidateEmbeddingConfig())
	require.NotNil(t, validator.embedding)
	assert.Equal(t, "text-embedding-3-large", validator.embedding.Model)

	err := service.ValidateLLMConfig()
	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))

	assert.NoError(t, NewSettingsService(memory.NewConfigStore(), nil).ValidateLLMConfig())
}

func TestSettingsService_ValidateVectorIndexConfig(t *testing.T) {
	validator := &mockAIValidator{vectorErr: domain.ErrVectorIndexUnavailable}
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("vector_index.host", "weaviate:8080"))
	service := NewSettingsService(store, validator)

	err := service.ValidateVectorIndexConfig()

	assert.True(t, errors.Is(err, domain.ErrVectorIndexUnavailable))
	require.NotNil(t, validator.vector)
	assert.Equal(t, "weaviate:8080", validator.vector.Host)
	assert.NoError(t, NewSettingsService(memory.NewConfigStore(), nil).ValidateVectorIndexConfig())
}
