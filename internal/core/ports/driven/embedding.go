package driven

import "context"

// EmbeddingService turns rule queries and document chunks into vectors.
// Query and chunk vectors must come from the same model for retrieval
// distances to mean anything.
type EmbeddingService interface {
	// Embed returns an empty vector and no error for blank text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order. Large inputs
	// are split into provider-sized requests.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is 0 when the model is unknown until the first call.
	Dimensions() int
	ModelName() string

	// Ping makes the cheapest request that proves the key and model work.
	Ping(ctx context.Context) error
	Close() error
}
