package file

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix starts the name of every environment override. The rest of the
// name is the key upper-cased with dots as underscores, so
// SERCHA_COMPLY_LLM_API_KEY overrides llm.api_key.
const EnvPrefix = "SERCHA_COMPLY_"

const configFile = "config.toml"

// ConfigStore keeps config.toml in memory as dot-notation keys
// ("engine.retry.max_attempts") and writes it back as nested tables, so the
// file stays hand-editable.
//
// Environment overrides win over the file on reads and are never written
// back. Keys only lists keys present in the file.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore opens dir/config.toml, creating dir if needed. An empty dir
// means ~/.sercha-comply. A missing file is an empty configuration.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: home directory: %w", err)
		}
		dir = filepath.Join(home, ".sercha-comply")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	s := &ConfigStore{filePath: filepath.Join(dir, configFile)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the override from the environment when set, else the file value.
func (s *ConfigStore) Get(key string) (any, bool) {
	if raw, ok := os.LookupEnv(EnvKey(key)); ok {
		return parseEnvValue(raw), true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// typed returns the value at key when it has type T.
func typed[T any](s *ConfigStore, key string) T {
	val, _ := s.Get(key)
	v, _ := val.(T)
	return v
}

func (s *ConfigStore) GetString(key string) string {
	// Overrides are read verbatim so numeric keys and tokens stay intact.
	if raw, ok := os.LookupEnv(EnvKey(key)); ok {
		return raw
	}
	return typed[string](s, key)
}

// GetInt reads TOML integers, which decode as int64, and ints set in-process.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	return typed[bool](s, key)
}

// GetStringSlice reads TOML arrays, skipping non-string elements.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func (s *ConfigStore) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Set stores value and writes the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.write()
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write replaces the file atomically with mode 0600, since it holds API
// keys. Callers hold the lock.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(nestMap(s.data))
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

// Load replaces the in-memory values with the file's contents.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read: %w", err)
	}

	var tables map[string]any
	if err := toml.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("config: parse %s: %w", s.filePath, err)
	}
	s.data = flattenMap(tables, "")
	return nil
}

// flattenMap turns nested tables into dot-notation keys: {"a": {"b": 1}}
// becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	out := make(map[string]any, len(m))
	var walk func(map[string]any, string)
	walk = func(m map[string]any, prefix string) {
		for key, value := range m {
			if prefix != "" {
				key = prefix + "." + key
			}
			if table, ok := value.(map[string]any); ok {
				walk(table, key)
				continue
			}
			out[key] = value
		}
	}
	walk(m, prefix)
	return out
}

// nestMap is the inverse of flattenMap. A key that is both a value and a
// table prefix keeps the value.
func nestMap(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	// Shorter keys first so leaf values claim their slot before deeper keys.
	slices.SortFunc(keys, func(a, b string) int {
		return strings.Count(a, ".") - strings.Count(b, ".")
	})

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		ok := true
		for _, part := range parts[:len(parts)-1] {
			next, exists := node[part]
			if !exists {
				child := make(map[string]any)
				node[part] = child
				node = child
				continue
			}
			child, isMap := next.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			node = child
		}
		if ok {
			node[parts[len(parts)-1]] = flat[key]
		}
	}
	return root
}

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// parseEnvValue reads raw as a TOML value so numbers, booleans and arrays
// keep their types. Anything else is a plain string.
func parseEnvValue(raw string) any {
	var doc struct {
		V any `toml:"v"`
	}
	if err := toml.Unmarshal([]byte("v = "+raw), &doc); err != nil {
		return raw
	}
	switch doc.V.(type) {
	case int64, float64, bool, []any:
		return doc.V
	default:
		return raw
	}
}

func (s *ConfigStore) Path() string {
	return s.filePath
}
