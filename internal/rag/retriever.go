package rag

import (
	"context"
	"fmt"
	"sync"

	"github.com/docuquery/cli/internal/domain"
	"github.com/docuquery/cli/internal/library"
	"github.com/docuquery/cli/internal/vectorindex"
)

// Embedder is the query-time view of the embedding provider. It must be the
// same provider the index was built with.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever answers similarity queries against a category's persisted index.
// The index of the active category stays cached across queries; switching
// categories evicts it.
type Retriever struct {
	store    *library.Store
	embedder Embedder
	topK     int

	mu             sync.Mutex
	cachedCategory string
	cachedIndex    *vectorindex.Index
}

// NewRetriever creates a new retriever.
func NewRetriever(store *library.Store, embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		topK:     topK,
	}
}

// Retrieve embeds the query and returns the k most similar stored chunks.
// k <= 0 uses the configured default. A category without a persisted index
// fails with vectorindex.ErrIndexMissing, which callers surface as
// "not yet processed" rather than a generic failure.
func (r *Retriever) Retrieve(ctx context.Context, category, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = r.topK
	}

	idx, err := r.index(category)
	if err != nil {
		return nil, err
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return idx.Search(vec, k)
}

// Stale reports whether the category's documents changed after its index
// was last built.
func (r *Retriever) Stale(category string) (bool, error) {
	return r.store.Stale(category)
}

// Invalidate drops the cached index. Call after a category is reprocessed
// or deleted so the next query reloads from disk.
func (r *Retriever) Invalidate() {
	r.mu.Lock()
	r.cachedCategory = ""
	r.cachedIndex = nil
	r.mu.Unlock()
}

func (r *Retriever) index(category string) (*vectorindex.Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cachedIndex != nil && r.cachedCategory == category {
		return r.cachedIndex, nil
	}

	idx, err := vectorindex.Load(r.store.IndexDir(category))
	if err != nil {
		return nil, err
	}
	r.cachedCategory = category
	r.cachedIndex = idx
	return idx, nil
}
