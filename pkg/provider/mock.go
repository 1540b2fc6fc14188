package provider

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/theapemachine/concierge/pkg/errors"
)

/*
MockEmbedder generates deterministic embeddings for testing. Each word
hashes into a bucket of a small fixed-width vector, so texts that share
words land near each other under cosine similarity.
*/
type MockEmbedder struct {
	Dims int
	Fail error
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dims: 16}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.Fail != nil {
		return nil, &errors.EmbeddingError{Err: m.Fail}
	}

	embedding := make([]float32, m.Dims)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		embedding[int(h.Sum32())%m.Dims]++
	}

	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}

	if norm > 0 {
		scale := float32(math.Sqrt(norm))
		for i := range embedding {
			embedding[i] /= scale
		}
	}

	return embedding, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	for i, text := range texts {
		embedding, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}

		out[i] = embedding
	}

	return out, nil
}

/*
MockGenerator records every prompt it receives and returns a canned
reply, so tests can assert on both sides of the generation call.
*/
type MockGenerator struct {
	Reply string
	Fail  error

	mu      sync.Mutex
	Prompts []string
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if m.Fail != nil {
		return "", &errors.GenerationError{Err: m.Fail}
	}

	if m.Reply == "" {
		return "mock reply", nil
	}

	return m.Reply, nil
}

// LastPrompt returns the most recent prompt, or "" when none was made.
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Prompts) == 0 {
		return ""
	}

	return m.Prompts[len(m.Prompts)-1]
}
