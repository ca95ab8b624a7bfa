// Package postprocessors builds document chunkers from configuration.
package postprocessors

import (
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker from chunking settings.
type BuilderFunc func(cfg domain.ChunkingSettings) (driven.Chunker, error)

// Registry maps splitter names to chunker builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new chunker registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a chunker builder to the registry.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a chunker for cfg.Splitter. An empty name selects the
// recursive splitter.
func (r *Registry) Build(cfg domain.ChunkingSettings) (driven.Chunker, error) {
	name := cfg.Splitter
	if name == "" {
		name = SplitterRecursive
	}
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown splitter: %s", domain.ErrInvalidConfig, name)
	}
	return builder(cfg)
}

// Has reports whether a builder is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered splitter names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}
