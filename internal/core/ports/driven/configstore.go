package driven

// ConfigStore is a flat key-value view of config.toml. Keys use dot
// notation for tables ("engine.retry.max_attempts", "fallback_queries.IndAS").
//
// Typed getters return the zero value when a key is missing or holds a
// different type, so callers apply their own defaults.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Keys lists stored keys under prefix in sorted order. The settings
	// service uses it to discover configured rule-sets.
	Keys(prefix string) []string

	// Set stores value and persists it.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is where the configuration lives, for display.
	Path() string
}
