package services

import (
	"fmt"

	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/prompts"
)

// loadPrompt returns the template for name from store, or the built-in
// default when no store is set or it fails.
func loadPrompt(store driven.PromptStore, name string) (string, error) {
	if store != nil {
		if p, err := store.Load(name); err == nil && p != "" {
			return p, nil
		}
	}
	if p, ok := prompts.Default(name); ok {
		return p, nil
	}
	return "", fmt.Errorf("prompt %q not found", name)
}
