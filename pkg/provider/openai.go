package provider

import (
	"context"
	"fmt"
	"os"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theapemachine/concierge/pkg/errors"
)

/*
DashScopeBaseURL is the OpenAI-compatible endpoint for the hosted Qwen
models. The same client works against api.openai.com or any other
compatible gateway by overriding the base URL.
*/
const DashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

/*
OpenAIProvider talks to any OpenAI-compatible API and implements both
Generator and Embedder.
*/
type OpenAIProvider struct {
	client      *openai.Client
	baseURL     string
	timeout     time.Duration
	ChatModel   string
	EmbedModel  string
	MaxTokens   int64
	Temperature float64
	TopP        float64
}

type OpenAIProviderOption func(*OpenAIProvider)

func NewOpenAIProvider(options ...OpenAIProviderOption) *OpenAIProvider {
	prvdr := &OpenAIProvider{
		baseURL:     DashScopeBaseURL,
		ChatModel:   "qwen-plus",
		EmbedModel:  "text-embedding-v2",
		MaxTokens:   800,
		Temperature: 0.7,
		TopP:        0.8,
	}

	for _, option := range options {
		option(prvdr)
	}

	if prvdr.client == nil {
		prvdr.client = newClient(prvdr.baseURL, prvdr.timeout)
	}

	return prvdr
}

func newClient(baseURL string, timeout time.Duration) *openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(os.Getenv("DASHSCOPE_API_KEY")),
		option.WithBaseURL(baseURL),
	}

	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	client := openai.NewClient(opts...)

	return &client
}

func (prvdr *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := prvdr.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(prvdr.ChatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(prvdr.MaxTokens),
		Temperature: openai.Float(prvdr.Temperature),
		TopP:        openai.Float(prvdr.TopP),
	})

	if err != nil {
		return "", &errors.GenerationError{Err: err}
	}

	if len(completion.Choices) == 0 {
		return "", &errors.GenerationError{Err: fmt.Errorf("completion returned no choices")}
	}

	return completion.Choices[0].Message.Content, nil
}

func (prvdr *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := prvdr.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(prvdr.EmbedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
	})

	if err != nil {
		return nil, &errors.EmbeddingError{Err: err}
	}

	if len(resp.Data) == 0 {
		return nil, &errors.EmbeddingError{Err: fmt.Errorf("embedding response was empty")}
	}

	return toFloat32(resp.Data[0].Embedding), nil
}

func (prvdr *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := prvdr.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(prvdr.EmbedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})

	if err != nil {
		return nil, &errors.EmbeddingError{Err: err}
	}

	if len(resp.Data) != len(texts) {
		return nil, &errors.EmbeddingError{
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = toFloat32(d.Embedding)
	}

	return out, nil
}

func toFloat32(f []float64) []float32 {
	out := make([]float32, len(f))
	for i, v := range f {
		out[i] = float32(v)
	}

	return out
}

func WithBaseURL(baseURL string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.baseURL = baseURL
	}
}

func WithRequestTimeout(timeout time.Duration) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.timeout = timeout
	}
}

func WithOpenAIClient(client *openai.Client) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.client = client
	}
}

func WithChatModel(model string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.ChatModel = model
	}
}

func WithEmbedModel(model string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.EmbedModel = model
	}
}
