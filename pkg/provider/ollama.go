package provider

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/ollama/ollama/api"
	"github.com/theapemachine/concierge/pkg/errors"
)

/*
OllamaProvider runs generation and embeddings against a local Ollama
instance, for offline use or development without a hosted API key.
*/
type OllamaProvider struct {
	client     *api.Client
	ChatModel  string
	EmbedModel string
}

type OllamaProviderOption func(*OllamaProvider)

func NewOllamaProvider(options ...OllamaProviderOption) *OllamaProvider {
	prvdr := &OllamaProvider{
		ChatModel:  "qwen2.5",
		EmbedModel: "nomic-embed-text",
	}

	for _, option := range options {
		option(prvdr)
	}

	if prvdr.client == nil {
		WithOllamaClient()(prvdr)
	}

	return prvdr
}

func (prvdr *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := &api.GenerateRequest{
		Model:  prvdr.ChatModel,
		Prompt: prompt,
		Options: map[string]any{
			"temperature": 0.7,
			"top_p":       0.8,
		},
	}

	var reply string
	respFunc := func(resp api.GenerateResponse) error {
		reply += resp.Response
		return nil
	}

	if err := prvdr.client.Generate(ctx, req, respFunc); err != nil {
		return "", &errors.GenerationError{Err: err}
	}

	return reply, nil
}

func (prvdr *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := prvdr.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  prvdr.EmbedModel,
		Prompt: text,
	})

	if err != nil {
		return nil, &errors.EmbeddingError{Err: err}
	}

	return toFloat32(resp.Embedding), nil
}

func (prvdr *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	for i, text := range texts {
		vector, err := prvdr.Embed(ctx, text)
		if err != nil {
			return nil, err
		}

		out[i] = vector
	}

	return out, nil
}

func WithOllamaClient() OllamaProviderOption {
	return func(prvdr *OllamaProvider) {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			log.Error("failed to create Ollama client", "error", err)
			return
		}

		prvdr.client = client
	}
}

func WithOllamaChatModel(model string) OllamaProviderOption {
	return func(prvdr *OllamaProvider) {
		prvdr.ChatModel = model
	}
}

func WithOllamaEmbedModel(model string) OllamaProviderOption {
	return func(prvdr *OllamaProvider) {
		prvdr.EmbedModel = model
	}
}
