package vectorindex

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docuquery/cli/internal/domain"
)

// Load distinguishes a category that was never processed from one whose
// persisted index is unreadable.
var (
	ErrIndexMissing = errors.New("vector index not found")
	ErrIndexCorrupt = errors.New("vector index corrupted")
)

const indexFileName = "index.gob"

type persistedIndex struct {
	Dimension int
	Chunks    []domain.Chunk
	Vectors   [][]float32
}

// Save writes the index into dir as a single gob artifact. The file is
// written to a temporary name and renamed into place so a reader never
// observes a half-written index.
func (idx *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, indexFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := gob.NewEncoder(tmp)
	err = enc.Encode(persistedIndex{
		Dimension: idx.dimension,
		Chunks:    idx.chunks,
		Vectors:   idx.vectors,
	})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, indexFileName)); err != nil {
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	return nil
}

// Load reads a previously saved index from dir. A missing directory or file
// yields ErrIndexMissing; anything unreadable yields ErrIndexCorrupt.
func Load(dir string) (*Index, error) {
	f, err := os.Open(filepath.Join(dir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexMissing, dir)
		}
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()

	var p persistedIndex
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	if len(p.Chunks) != len(p.Vectors) || len(p.Chunks) == 0 {
		return nil, fmt.Errorf("%w: %d chunks, %d vectors", ErrIndexCorrupt, len(p.Chunks), len(p.Vectors))
	}
	for i, v := range p.Vectors {
		if len(v) != p.Dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrIndexCorrupt, i, len(v), p.Dimension)
		}
	}

	return &Index{
		dimension: p.Dimension,
		chunks:    p.Chunks,
		vectors:   p.Vectors,
	}, nil
}
