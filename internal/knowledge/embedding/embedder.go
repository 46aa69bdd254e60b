package embedding

import (
	"context"
)

// Embedder turns text into fixed-length vectors.
type Embedder interface {
	// Embed generates a vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// BatchEmbed generates vectors for a batch of texts
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension
	Dimension() int

	// Model returns the model name
	Model() string
}
