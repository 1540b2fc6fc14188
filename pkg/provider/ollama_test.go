package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerateAccumulatesStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5", req["model"])

		w.Header().Set("Content-Type", "application/x-ndjson")

		enc := json.NewEncoder(w)
		enc.Encode(map[string]any{"model": "qwen2.5", "response": "您好", "done": false})
		enc.Encode(map[string]any{"model": "qwen2.5", "response": "！", "done": true})
	}))
	defer server.Close()

	t.Setenv("OLLAMA_HOST", server.URL)

	prvdr := NewOllamaProvider()

	reply, err := prvdr.Generate(context.Background(), "你好")

	require.NoError(t, err)
	assert.Equal(t, "您好！", reply)
}

func TestOllamaEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.25, 0.5}})
	}))
	defer server.Close()

	t.Setenv("OLLAMA_HOST", server.URL)

	prvdr := NewOllamaProvider()

	embedding, err := prvdr.Embed(context.Background(), "你好")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5}, embedding)
}
