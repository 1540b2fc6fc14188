package vector

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

type (
	// DimensionError reports an embedding whose width does not match
	// the width the index was built with.
	DimensionError struct {
		Got  int
		Want int
	}

	// EmptyEmbeddingError reports an entry with no embedding at all.
	EmptyEmbeddingError struct {
		ID string
	}
)

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding has %d dimensions, index expects %d", e.Got, e.Want)
}

func (e *EmptyEmbeddingError) Error() string {
	return fmt.Sprintf("entry %s has an empty embedding", e.ID)
}

/*
Entry is one indexed knowledge passage. Entries are immutable once
added; a knowledge refresh builds a new entry set and swaps it in.
*/
type Entry struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Embedding []float32         `json:"embedding"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Match pairs an entry with its similarity to the query embedding.
type Match struct {
	Entry Entry
	Score float64
}

/*
Index is a nearest-neighbor store over fixed-width embeddings. Reads
may run concurrently; mutation happens through Add and Swap only.
*/
type Index interface {
	Add(entries ...Entry) error
	Swap(entries []Entry) error
	Search(embedding []float32, k int) []Match
	Len() int
	Dimensions() int
	Entries() []Entry
}

/*
InMemoryIndex keeps every entry in a slice and scores queries by brute
force. At knowledge-base scale that beats any index structure, and the
zero-dependency default keeps startup trivial. Production deployments
can swap in a server-backed store behind the same interface.
*/
type InMemoryIndex struct {
	mu      sync.RWMutex
	entries []Entry
	dims    int
}

func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

/*
Add appends entries to the index. The first entry fixes the embedding
width; anything that deviates from it afterwards is rejected and
nothing from that batch is kept.
*/
func (idx *InMemoryIndex) Add(entries ...Entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	dims := idx.dims

	for _, entry := range entries {
		if len(entry.Embedding) == 0 {
			return &EmptyEmbeddingError{ID: entry.ID}
		}

		if dims == 0 {
			dims = len(entry.Embedding)
		}

		if len(entry.Embedding) != dims {
			return &DimensionError{Got: len(entry.Embedding), Want: dims}
		}
	}

	idx.dims = dims
	idx.entries = append(idx.entries, entries...)

	return nil
}

/*
Swap atomically replaces the whole entry set. In-flight readers finish
against the old slice; new readers see the new one. This is the only
supported way to rebuild the index while serving traffic.
*/
func (idx *InMemoryIndex) Swap(entries []Entry) error {
	dims := 0

	for _, entry := range entries {
		if len(entry.Embedding) == 0 {
			return &EmptyEmbeddingError{ID: entry.ID}
		}

		if dims == 0 {
			dims = len(entry.Embedding)
		}

		if len(entry.Embedding) != dims {
			return &DimensionError{Got: len(entry.Embedding), Want: dims}
		}
	}

	fresh := make([]Entry, len(entries))
	copy(fresh, entries)

	idx.mu.Lock()
	idx.entries = fresh
	idx.dims = dims
	idx.mu.Unlock()

	return nil
}

/*
Search scores the query against every entry and returns the k best in
descending similarity. Equal scores keep their insertion order. An
empty index or non-positive k yields an empty result.
*/
func (idx *InMemoryIndex) Search(embedding []float32, k int) []Match {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 || k <= 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(idx.entries))

	for _, entry := range idx.entries {
		matches = append(matches, Match{
			Entry: entry,
			Score: Cosine(embedding, entry.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < len(matches) {
		matches = matches[:k]
	}

	return matches
}

func (idx *InMemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries)
}

func (idx *InMemoryIndex) Dimensions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.dims
}

// Entries returns a copy of the indexed entries in insertion order.
func (idx *InMemoryIndex) Entries() []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)

	return out
}

/*
Cosine computes cosine similarity between two vectors, accumulating in
float64 to keep small embedding values from washing out. Mismatched or
zero-norm vectors score 0 rather than erroring, so a single bad entry
ranks last instead of poisoning the whole search.
*/
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
