package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// MIME types of the built-in formats.
const (
	MIMEElementsJSON = "application/json"
	MIMEMarkdown     = "text/markdown"
	MIMEPlainText    = "text/plain"
	MIMEHTML         = "text/html"
)

// extensionTypes takes precedence over the system MIME table, which varies
// between platforms for these extensions.
var extensionTypes = map[string]string{
	".json":     MIMEElementsJSON,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
	".txt":      MIMEPlainText,
	".text":     MIMEPlainText,
	".html":     MIMEHTML,
	".htm":      MIMEHTML,
}

// Registry dispatches raw documents to the best normaliser for their type.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a normaliser, keeping the list ordered by priority.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise selects a normaliser by MIME type and runs it.
// Returns domain.ErrInvalidInput when no normaliser handles the type.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mimeType := baseType(raw.MIMEType)
	if mimeType == "" {
		mimeType = MIMETypeFor(raw.URI)
	}

	n := r.lookup(mimeType)
	if n == nil {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, mimeType)
	}

	doc, err := n.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", raw.URI, err)
	}
	return doc, nil
}

// SupportedMIMETypes returns all MIME types that can be normalised, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if t == mimeType {
				return n
			}
		}
	}
	return nil
}

// MIMETypeFor guesses the MIME type of path from its extension.
func MIMETypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := baseType(mime.TypeByExtension(ext)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// baseType drops parameters such as charset from a MIME type.
func baseType(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}
