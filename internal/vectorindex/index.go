package vectorindex

import (
	"errors"
	"fmt"
	"sort"

	"github.com/docuquery/cli/internal/domain"
)

// Index is an exact nearest-neighbor search structure over the chunk
// embeddings of one category. Vectors are unit-length, so inner product
// stands in for cosine similarity. An index is immutable after Build.
type Index struct {
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float32
}

// Build pairs each chunk with its embedding vector. All vectors must share
// one dimension and line up one-to-one with chunks.
func Build(chunks []domain.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil, errors.New("cannot build an empty index")
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	return &Index{
		dimension: dim,
		chunks:    append([]domain.Chunk(nil), chunks...),
		vectors:   append([][]float32(nil), vectors...),
	}, nil
}

// Size returns the number of stored chunks.
func (idx *Index) Size() int { return len(idx.chunks) }

// Dimension returns the embedding dimension.
func (idx *Index) Dimension() int { return idx.dimension }

// Search returns the k most similar chunks to the query vector, ordered by
// descending score. Ties keep insertion order. Asking for more results than
// the index holds returns everything.
func (idx *Index) Search(query []float32, k int) ([]domain.SearchResult, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), idx.dimension)
	}
	if k <= 0 {
		k = 3
	}

	order := make([]int, len(idx.vectors))
	scores := make([]float64, len(idx.vectors))
	for i := range idx.vectors {
		order[i] = i
		scores[i] = dot(idx.vectors[i], query)
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}

	results := make([]domain.SearchResult, 0, k)
	for _, j := range order[:k] {
		results = append(results, domain.SearchResult{Chunk: idx.chunks[j], Score: scores[j]})
	}
	return results, nil
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
