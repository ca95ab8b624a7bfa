package driven

import (
	"context"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// NormaliserRegistry routes a raw file to the normaliser for its MIME type.
// Unknown types fail with domain.ErrInvalidInput.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
	Register(normaliser Normaliser)

	// SupportedMIMETypes is used by the filesystem source to skip files
	// nothing can read.
	SupportedMIMETypes() []string
}
