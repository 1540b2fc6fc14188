package retriever

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theapemachine/concierge/pkg/errors"
	"github.com/theapemachine/concierge/pkg/provider"
	"github.com/theapemachine/concierge/pkg/vector"
)

// countingEmbedder counts provider round trips so cache behavior is
// observable.
type countingEmbedder struct {
	*provider.MockEmbedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.MockEmbedder.Embed(ctx, text)
}

func buildIndex(t *testing.T, embedder provider.Embedder, texts ...string) vector.Index {
	t.Helper()

	idx := vector.NewInMemoryIndex()

	for i, text := range texts {
		embedding, err := embedder.Embed(context.Background(), text)
		require.NoError(t, err)
		require.NoError(t, idx.Add(vector.Entry{
			ID:        fmt.Sprintf("kb-%d", i),
			Text:      text,
			Embedding: embedding,
		}))
	}

	return idx
}

func TestRetrieveRanksSharedVocabularyFirst(t *testing.T) {
	embedder := provider.NewMockEmbedder()
	idx := buildIndex(t, embedder,
		"return policy refund window",
		"shipping fees and delivery",
		"warranty repairs",
	)

	matches, err := New(embedder, idx).Retrieve(context.Background(), "how do I refund a return", 2)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "kb-0", matches[0].Entry.ID)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	embedder := provider.NewMockEmbedder()

	matches, err := New(embedder, vector.NewInMemoryIndex()).Retrieve(context.Background(), "anything", 3)

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieveUsesDefaultTopK(t *testing.T) {
	embedder := provider.NewMockEmbedder()
	idx := buildIndex(t, embedder, "a b", "c d", "e f", "g h")

	matches, err := New(embedder, idx, WithTopK(2)).Retrieve(context.Background(), "a", 0)

	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	embedder := provider.NewMockEmbedder()
	embedder.Fail = stderrors.New("provider down")

	_, err := New(embedder, vector.NewInMemoryIndex()).Retrieve(context.Background(), "anything", 3)

	var embErr *errors.EmbeddingError
	require.ErrorAs(t, err, &embErr)
}

func TestRetrieveCachesQueryEmbeddings(t *testing.T) {
	embedder := &countingEmbedder{MockEmbedder: provider.NewMockEmbedder()}
	idx := buildIndex(t, embedder.MockEmbedder, "return policy")

	rtrvr := New(embedder, idx, WithCache(time.Minute))

	for i := 0; i < 3; i++ {
		_, err := rtrvr.Retrieve(context.Background(), "return policy question", 1)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, embedder.calls, "repeated query must hit the cache")
}
