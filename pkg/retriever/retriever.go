package retriever

import (
	"context"
	stderrors "errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/theapemachine/concierge/pkg/errors"
	"github.com/theapemachine/concierge/pkg/provider"
	"github.com/theapemachine/concierge/pkg/vector"
)

/*
Retriever turns a text query into ranked knowledge matches: embed the
query, score it against the index, keep the best k. It never mutates
the index, so any number of retrievals may run concurrently.
*/
type Retriever struct {
	embedder provider.Embedder
	index    vector.Index
	cache    *gocache.Cache
	topK     int
}

type RetrieverOption func(*Retriever)

func New(embedder provider.Embedder, index vector.Index, options ...RetrieverOption) *Retriever {
	rtrvr := &Retriever{
		embedder: embedder,
		index:    index,
		topK:     3,
	}

	for _, option := range options {
		option(rtrvr)
	}

	return rtrvr
}

// WithTopK sets the default result count used when a call passes k <= 0.
func WithTopK(k int) RetrieverOption {
	return func(rtrvr *Retriever) {
		if k > 0 {
			rtrvr.topK = k
		}
	}
}

/*
WithCache memoizes query embeddings for the given TTL. Users repeat
themselves a lot in support conversations; skipping the provider round
trip for a repeated query is the cheapest latency win available.
*/
func WithCache(ttl time.Duration) RetrieverOption {
	return func(rtrvr *Retriever) {
		rtrvr.cache = gocache.New(ttl, 2*ttl)
	}
}

/*
Retrieve returns up to k matches in descending similarity order. An
empty index yields an empty result. An embedding failure comes back as
*errors.EmbeddingError so the caller can fall back to answering
without retrieved context.
*/
func (rtrvr *Retriever) Retrieve(ctx context.Context, query string, k int) ([]vector.Match, error) {
	if k <= 0 {
		k = rtrvr.topK
	}

	embedding, err := rtrvr.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	return rtrvr.index.Search(embedding, k), nil
}

func (rtrvr *Retriever) embed(ctx context.Context, query string) ([]float32, error) {
	if rtrvr.cache != nil {
		if cached, ok := rtrvr.cache.Get(query); ok {
			return cached.([]float32), nil
		}
	}

	embedding, err := rtrvr.embedder.Embed(ctx, query)

	if err != nil {
		// Providers wrap their own failures; guard anyway so callers
		// can always branch on the typed error.
		var embErr *errors.EmbeddingError
		if !stderrors.As(err, &embErr) {
			err = &errors.EmbeddingError{Err: err}
		}

		return nil, err
	}

	if rtrvr.cache != nil {
		rtrvr.cache.Set(query, embedding, gocache.DefaultExpiration)
	}

	return embedding, nil
}
