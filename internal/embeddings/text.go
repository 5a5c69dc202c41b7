package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/docuquery/cli/internal/ollama"
)

// ErrProviderInit marks a failure to bring up the embedding model itself,
// as opposed to a per-request failure. Callers must not build or query an
// index when initialization failed.
var ErrProviderInit = errors.New("embedding provider initialization failed")

// TextEmbedder generates L2-normalized text embeddings using Ollama. The
// initialization probe runs once and is memoized for the process lifetime.
type TextEmbedder struct {
	client *ollama.Client
	model  string

	initOnce sync.Once
	initErr  error
}

// NewTextEmbedder creates a new text embedder
func NewTextEmbedder(client *ollama.Client, model string) *TextEmbedder {
	if model == "" {
		model = "nomic-embed-text"
	}
	return &TextEmbedder{
		client: client,
		model:  model,
	}
}

// Init probes the embedding model with a trivial request. The first call
// does the work; subsequent calls return the memoized result.
func (e *TextEmbedder) Init(ctx context.Context) error {
	e.initOnce.Do(func() {
		if _, err := e.client.Embeddings(ctx, e.model, "ping"); err != nil {
			e.initErr = fmt.Errorf("%w: model %q: %v", ErrProviderInit, e.model, err)
		}
	})
	return e.initErr
}

// Embed generates a unit-length embedding for the given text.
func (e *TextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.Init(ctx); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	vec, err := e.client.Embeddings(ctx, e.model, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}

	normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *TextEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// normalize scales v to unit L2 norm in place so inner product equals
// cosine similarity downstream. Zero vectors are left untouched.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
