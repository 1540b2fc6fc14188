package provider

import "context"

/*
Embedder converts text into fixed-width vectors. Implementations wrap a
remote embedding API; failures come back as *errors.EmbeddingError so
the retrieval pipeline can degrade instead of crashing.
*/
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

/*
Generator produces a completion for a fully assembled prompt. Failures
come back as *errors.GenerationError.
*/
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
