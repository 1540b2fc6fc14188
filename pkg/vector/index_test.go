package vector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, embedding ...float32) Entry {
	return Entry{ID: id, Text: "text " + id, Embedding: embedding}
}

func TestAddFixesDimensions(t *testing.T) {
	idx := NewInMemoryIndex()

	require.NoError(t, idx.Add(entry("a", 1, 0, 0)))
	assert.Equal(t, 3, idx.Dimensions())

	var dimErr *DimensionError
	err := idx.Add(entry("b", 1, 0))
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 2, dimErr.Got)
	assert.Equal(t, 3, dimErr.Want)
	assert.Equal(t, 1, idx.Len())
}

func TestAddRejectsEmptyEmbedding(t *testing.T) {
	idx := NewInMemoryIndex()

	var emptyErr *EmptyEmbeddingError
	require.ErrorAs(t, idx.Add(Entry{ID: "a"}), &emptyErr)
	assert.Equal(t, 0, idx.Len())
}

func TestSearchRanksByDescendingSimilarity(t *testing.T) {
	idx := NewInMemoryIndex()
	require.NoError(t, idx.Add(
		entry("far", 0, 1, 0),
		entry("near", 1, 0.1, 0),
		entry("exact", 1, 0, 0),
	))

	matches := idx.Search([]float32{1, 0, 0}, 2)

	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].Entry.ID)
	assert.Equal(t, "near", matches[1].Entry.ID)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestSearchBreaksTiesByInsertionOrder(t *testing.T) {
	idx := NewInMemoryIndex()
	require.NoError(t, idx.Add(
		entry("first", 1, 0),
		entry("second", 1, 0),
		entry("third", 1, 0),
	))

	matches := idx.Search([]float32{1, 0}, 3)

	require.Len(t, matches, 3)
	assert.Equal(t, "first", matches[0].Entry.ID)
	assert.Equal(t, "second", matches[1].Entry.ID)
	assert.Equal(t, "third", matches[2].Entry.ID)
}

func TestSearchEdgeCases(t *testing.T) {
	idx := NewInMemoryIndex()
	assert.Empty(t, idx.Search([]float32{1, 0}, 5), "empty index returns empty, not nil panic")

	require.NoError(t, idx.Add(entry("only", 1, 0)))
	assert.Len(t, idx.Search([]float32{1, 0}, 10), 1, "k beyond size returns everything")
	assert.Empty(t, idx.Search([]float32{1, 0}, 0))
	assert.Empty(t, idx.Search([]float32{1, 0}, -1))
}

func TestSwapReplacesEntrySet(t *testing.T) {
	idx := NewInMemoryIndex()
	require.NoError(t, idx.Add(entry("old", 1, 0, 0)))

	require.NoError(t, idx.Swap([]Entry{entry("new-a", 0, 1), entry("new-b", 1, 0)}))

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, idx.Dimensions())

	matches := idx.Search([]float32{0, 1}, 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "new-a", matches[0].Entry.ID)
}

func TestSwapIsSafeUnderConcurrentReads(t *testing.T) {
	idx := NewInMemoryIndex()
	require.NoError(t, idx.Add(entry("seed", 1, 0)))

	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				for _, match := range idx.Search([]float32{1, 0}, 2) {
					// Every observed entry must be complete.
					assert.NotEmpty(t, match.Entry.ID)
					assert.NotEmpty(t, match.Entry.Embedding)
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			fresh := []Entry{entry("swap-a", float32(i), 1), entry("swap-b", 1, float32(i))}
			assert.NoError(t, idx.Swap(fresh))
		}
	}()

	wg.Wait()
}

func TestEntriesReturnsCopy(t *testing.T) {
	idx := NewInMemoryIndex()
	require.NoError(t, idx.Add(entry("a", 1, 0)))

	entries := idx.Entries()
	entries[0].ID = "mutated"

	assert.Equal(t, "a", idx.Entries()[0].ID)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}), "zero norm scores zero")
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 1}), "mismatched widths score zero")
	assert.Zero(t, Cosine(nil, nil))
}
