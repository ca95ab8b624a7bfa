package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sercha-comply", "config.toml"), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.model", "gpt-4.1"))
	require.NoError(t, store.Set("engine.max_concurrent", 2))
	require.NoError(t, store.Set("vector_index.insecure", true))
	require.NoError(t, store.Set("engine.default_rule_sets", []string{"IndAS", "Schedule_III"}))

	assert.Equal(t, "gpt-4.1", store.GetString("llm.model"))
	assert.Equal(t, 2, store.GetInt("engine.max_concurrent"))
	assert.True(t, store.GetBool("vector_index.insecure"))
	assert.Equal(t, []string{"IndAS", "Schedule_III"}, store.GetStringSlice("engine.default_rule_sets"))

	// Wrong types read as zero values.
	assert.Empty(t, store.GetString("engine.max_concurrent"))
	assert.Zero(t, store.GetInt("llm.model"))
	assert.False(t, store.GetBool("llm.model"))
	assert.Nil(t, store.GetStringSlice("llm.model"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsAsTables(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("llm.provider", "openai"))
	require.NoError(t, store1.Set("engine.retry.max_attempts", 4))
	require.NoError(t, store1.Set("fallback_queries.IndAS", []string{"Ind AS 1 presentation"}))

	data, err := os.ReadFile(store1.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")
	assert.Contains(t, string(data), "[engine.retry]")
	assert.NotContains(t, string(data), `"llm.provider"`)

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "openai", store2.GetString("llm.provider"))
	assert.Equal(t, 4, store2.GetInt("engine.retry.max_attempts"))
	assert.Equal(t, []string{"Ind AS 1 presentation"}, store2.GetStringSlice("fallback_queries.IndAS"))
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[llm]
provider = "ollama"
temperature = 0.2

[fallback_queries]
IndAS = ["Ind AS 116 lease disclosures", "Ind AS 24 related parties"]
Custom_Rules = ["custom disclosure requirement"]
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", store.GetString("llm.provider"))
	val, ok := store.Get("llm.temperature")
	require.True(t, ok)
	assert.InDelta(t, 0.2, val, 1e-9)
	assert.Equal(t, []string{"fallback_queries.Custom_Rules", "fallback_queries.IndAS"}, store.Keys("fallback_queries."))
	assert.Len(t, store.GetStringSlice("fallback_queries.IndAS"), 2)
}

func TestConfigStore_Keys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("engine.top_k", 8))
	require.NoError(t, store.Set("engine.max_concurrent", 2))
	require.NoError(t, store.Set("llm.model", "gpt-4.1"))

	assert.Equal(t, []string{"engine.max_concurrent", "engine.top_k"}, store.Keys("engine."))
	assert.Len(t, store.Keys(""), 3)
	assert.Empty(t, store.Keys("chunking."))
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":       1,
		"a.b":     2,
		"x.y.z":   "deep",
		"x.y.w":   true,
		"top":     "v",
		"top2.k":  []string{"q"},
		"x.other": 3,
	})

	assert.Equal(t, 1, nested["a"])
	assert.Equal(t, "v", nested["top"])
	x := nested["x"].(map[string]any)
	assert.Equal(t, 3, x["other"])
	y := x["y"].(map[string]any)
	assert.Equal(t, "deep", y["z"])
	assert.Equal(t, true, y["w"])
	assert.Equal(t, []string{"q"}, nested["top2"].(map[string]any)["k"])

	flat := flattenMap(nested, "")
	assert.NotContains(t, flat, "a.b")
	assert.Equal(t, "deep", flat["x.y.z"])
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.api_key", "sk-test"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte{}, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Empty(t, store.Keys(""))
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("test", "value"))

	// Replace the file with a directory to cause write error
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("valid", "data"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid toml syntax ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "engine.key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.Keys("engine.")
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Keys("engine."), 10)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "SERCHA_COMPLY_LLM_API_KEY", EnvKey("llm.api_key"))
	assert.Equal(t, "SERCHA_COMPLY_ENGINE_RETRY_MAX_ATTEMPTS", EnvKey("engine.retry.max_attempts"))
}

func TestParseEnvValue(t *testing.T) {
	assert.Equal(t, int64(4), parseEnvValue("4"))
	assert.Equal(t, 0.2, parseEnvValue("0.2"))
	assert.Equal(t, true, parseEnvValue("true"))
	assert.Equal(t, []any{"IndAS", "Schedule_III"}, parseEnvValue(`["IndAS", "Schedule_III"]`))
	assert.Equal(t, "gpt-4.1", parseEnvValue("gpt-4.1"))
	assert.Equal(t, "localhost:8080", parseEnvValue("localhost:8080"))
	assert.Equal(t, "sk-abc", parseEnvValue("sk-abc"))
}

func TestConfigStore_EnvironmentOverrides(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.model", "gpt-4.1"))
	require.NoError(t, store.Set("engine.top_k", 8))

	t.Setenv("SERCHA_COMPLY_LLM_MODEL", "gpt-4.1-mini")
	t.Setenv("SERCHA_COMPLY_ENGINE_TOP_K", "12")
	t.Setenv("SERCHA_COMPLY_LLM_API_KEY", "sk-from-env")

	assert.Equal(t, "gpt-4.1-mini", store.GetString("llm.model"))
	assert.Equal(t, 12, store.GetInt("engine.top_k"))
	assert.Equal(t, "sk-from-env", store.GetString("llm.api_key"))
	assert.NotContains(t, store.Keys("llm."), "llm.api_key")

	// Overrides are never persisted.
	require.NoError(t, store.Save())
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-from-env")
	assert.Contains(t, string(data), "gpt-4.1")
}

func TestConfigStore_EnvironmentStringKeepsDigits(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	t.Setenv("SERCHA_COMPLY_LLM_API_KEY", "4242")

	assert.Equal(t, "4242", store.GetString("llm.api_key"))
	assert.Equal(t, 4242, store.GetInt("llm.api_key"))
}
