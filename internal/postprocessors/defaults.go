package postprocessors

import (
	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/postprocessors/chunker"
)

// Splitter names accepted in chunking.splitter.
const (
	SplitterRecursive   = "recursive"
	SplitterLangchaingo = "langchaingo"
)

// RegisterDefaults registers the built-in chunker builders.
func RegisterDefaults(r *Registry) {
	r.Register(SplitterRecursive, buildRecursive)
	r.Register(SplitterLangchaingo, buildLangchain)
}

// NewChunker builds a chunker from settings using the default registry.
func NewChunker(cfg domain.ChunkingSettings) (driven.Chunker, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Build(cfg)
}

func buildRecursive(cfg domain.ChunkingSettings) (driven.Chunker, error) {
	return chunker.New(sizeOptions(cfg)...), nil
}

func buildLangchain(cfg domain.ChunkingSettings) (driven.Chunker, error) {
	// Resolve clamped size and overlap before handing them to langchaingo.
	base := chunker.New(sizeOptions(cfg)...)
	opts := append(sizeOptions(cfg),
		chunker.WithSplitter(chunker.NewLangchainSplitter(base.ChunkSize(), base.Overlap())))
	return chunker.New(opts...), nil
}

func sizeOptions(cfg domain.ChunkingSettings) []chunker.Option {
	var opts []chunker.Option
	if cfg.ChunkSize > 0 {
		opts = append(opts, chunker.WithChunkSize(cfg.ChunkSize))
	}
	if cfg.Overlap >= 0 {
		opts = append(opts, chunker.WithOverlap(cfg.Overlap))
	}
	return opts
}
