package normalisers

import (
	"github.com/custodia-labs/sercha-comply/internal/normalisers/elements"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/htmlpage"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-comply/internal/normalisers/plaintext"
)

// RegisterDefaults registers the built-in normalisers.
func RegisterDefaults(r *Registry) {
	r.Register(elements.New())
	r.Register(htmlpage.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
}

// NewDefaultRegistry returns a registry holding the built-in normalisers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
