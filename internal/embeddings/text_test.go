package embeddings

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuquery/cli/internal/ollama"
)

func fakeOllama(t *testing.T, vec []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vec})
	}))
}

func TestEmbedNormalizesToUnitLength(t *testing.T) {
	srv := fakeOllama(t, []float32{3, 4})
	defer srv.Close()

	e := NewTextEmbedder(ollama.NewClient(srv.URL), "nomic-embed-text")
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	srv := fakeOllama(t, []float32{1})
	defer srv.Close()

	e := NewTextEmbedder(ollama.NewClient(srv.URL), "")
	_, err := e.Embed(context.Background(), "   ")
	assert.Error(t, err)
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv := fakeOllama(t, []float32{0, 5})
	defer srv.Close()

	e := NewTextEmbedder(ollama.NewClient(srv.URL), "")
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.InDelta(t, 1.0, float64(v[1]), 1e-6)
	}
}

func TestInitFailureIsDistinctAndMemoized(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewTextEmbedder(ollama.NewClient(srv.URL), "missing-model")

	err := e.Init(context.Background())
	assert.ErrorIs(t, err, ErrProviderInit)

	_, err = e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrProviderInit, "callers must not proceed without a working provider")
	assert.Equal(t, 1, calls, "the init probe runs exactly once")
}
