package documents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuquery/cli/internal/domain"
	"github.com/docuquery/cli/internal/library"
	"github.com/docuquery/cli/internal/vectorindex"
)

// fakeParser turns any file into one page per line of its content.
type fakeParser struct {
	failOn string
}

func (p *fakeParser) Parse(filePath string) ([]domain.Document, error) {
	if p.failOn != "" && filepath.Base(filePath) == p.failOn {
		return nil, errors.New("parse failure")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return []domain.Document{{Source: filepath.Base(filePath), Page: 0, Text: string(data)}}, nil
}

// fakeEmbedder returns a fixed unit vector per text.
type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func setup(t *testing.T) *library.Store {
	t.Helper()
	store, err := library.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Create("Admissions"))
	return store
}

func addDoc(t *testing.T, store *library.Store, category, name, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, store.Upload(category, []string{path}))
}

func TestProcessEmptyCategoryFails(t *testing.T) {
	store := setup(t)
	p := NewProcessor(store, &fakeParser{}, &fakeEmbedder{}, 1500, 300, nil)

	err := p.Process(context.Background(), "Admissions")
	assert.ErrorIs(t, err, ErrNoDocuments)

	_, statErr := os.Stat(store.IndexDir("Admissions"))
	assert.True(t, os.IsNotExist(statErr), "no index directory may be created on failure")
}

func TestProcessUnknownCategoryFails(t *testing.T) {
	store := setup(t)
	p := NewProcessor(store, &fakeParser{}, &fakeEmbedder{}, 1500, 300, nil)

	err := p.Process(context.Background(), "nope")
	assert.ErrorIs(t, err, library.ErrCategoryNotFound)
}

func TestProcessBuildsLoadableIndex(t *testing.T) {
	store := setup(t)
	addDoc(t, store, "Admissions", "fees.pdf", "Fees are $500 per semester.")
	p := NewProcessor(store, &fakeParser{}, &fakeEmbedder{}, 1500, 300, nil)

	require.NoError(t, p.Process(context.Background(), "Admissions"))

	idx, err := vectorindex.Load(store.IndexDir("Admissions"))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Size())

	manifest, err := store.ReadManifest("Admissions")
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, 1, manifest.ChunkCount)
	assert.Equal(t, []string{"fees.pdf"}, manifest.Files)

	stale, err := store.Stale("Admissions")
	require.NoError(t, err)
	assert.False(t, stale, "a fresh build is not stale")
}

func TestProcessReplacesPreviousIndex(t *testing.T) {
	store := setup(t)
	addDoc(t, store, "Admissions", "one.pdf", "first document")
	p := NewProcessor(store, &fakeParser{}, &fakeEmbedder{}, 1500, 300, nil)
	require.NoError(t, p.Process(context.Background(), "Admissions"))

	addDoc(t, store, "Admissions", "two.pdf", "second document")
	require.NoError(t, p.Process(context.Background(), "Admissions"))

	idx, err := vectorindex.Load(store.IndexDir("Admissions"))
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Size(), "rebuild replaces, not merges")
}

func TestProcessFailureLeavesOldIndexIntact(t *testing.T) {
	store := setup(t)
	addDoc(t, store, "Admissions", "one.pdf", "first document")

	ok := NewProcessor(store, &fakeParser{}, &fakeEmbedder{}, 1500, 300, nil)
	require.NoError(t, ok.Process(context.Background(), "Admissions"))

	addDoc(t, store, "Admissions", "two.pdf", "second document")
	failing := NewProcessor(store, &fakeParser{}, &fakeEmbedder{err: errors.New("embedding backend down")}, 1500, 300, nil)
	err := failing.Process(context.Background(), "Admissions")
	require.Error(t, err)

	idx, loadErr := vectorindex.Load(store.IndexDir("Admissions"))
	require.NoError(t, loadErr, "old index must survive a failed rebuild")
	assert.Equal(t, 1, idx.Size())
}

func TestRebuildKeepsIndexVisibleToReaders(t *testing.T) {
	store := setup(t)
	addDoc(t, store, "Admissions", "one.pdf", "first document")
	p := NewProcessor(store, &fakeParser{}, &fakeEmbedder{}, 1500, 300, nil)
	require.NoError(t, p.Process(context.Background(), "Admissions"))

	done := make(chan struct{})
	var readErr error
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			if _, err := vectorindex.Load(store.IndexDir("Admissions")); err != nil {
				readErr = err
				return
			}
		}
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Process(context.Background(), "Admissions"))
	}
	<-done
	assert.NoError(t, readErr, "a rebuild must not hide the index from concurrent readers")
}

func TestProcessParseFailureAbortsBuild(t *testing.T) {
	store := setup(t)
	addDoc(t, store, "Admissions", "bad.pdf", "whatever")

	p := NewProcessor(store, &fakeParser{failOn: "bad.pdf"}, &fakeEmbedder{}, 1500, 300, nil)
	err := p.Process(context.Background(), "Admissions")
	require.Error(t, err)

	_, statErr := os.Stat(store.IndexDir("Admissions"))
	assert.True(t, os.IsNotExist(statErr))
}
