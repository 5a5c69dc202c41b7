package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCreateValidation(t *testing.T) {
	s := newTestStore(t)

	assert.ErrorIs(t, s.Create(""), ErrEmptyName)
	assert.ErrorIs(t, s.Create("   "), ErrEmptyName)
	assert.ErrorIs(t, s.Create("a/b"), ErrInvalidName)
	assert.ErrorIs(t, s.Create(".."), ErrInvalidName)

	require.NoError(t, s.Create("Fees"))
	assert.ErrorIs(t, s.Create("Fees"), ErrCategoryExists)
}

func TestListIsSorted(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create("zeta"))
	require.NoError(t, s.Create("alpha"))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestUploadRejectsNonPDFBeforeCopying(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create("Fees"))

	src := t.TempDir()
	pdf := writeFile(t, src, "fees.pdf", "%PDF fees")
	txt := writeFile(t, src, "notes.txt", "plain text")

	err := s.Upload("Fees", []string{pdf, txt})
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	files, err := s.DocumentFiles("Fees")
	require.NoError(t, err)
	assert.Empty(t, files, "nothing may be copied when any file is rejected")
}

func TestUploadOverwritesSameName(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create("Fees"))

	src := t.TempDir()
	first := writeFile(t, src, "fees.pdf", "old")
	require.NoError(t, s.Upload("Fees", []string{first}))

	second := writeFile(t, src, "fees.pdf", "new content")
	require.NoError(t, s.Upload("Fees", []string{second}))

	files, err := s.DocumentFiles("Fees")
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))
}

func TestUploadToMissingCategory(t *testing.T) {
	s := newTestStore(t)
	pdf := writeFile(t, t.TempDir(), "a.pdf", "x")
	assert.ErrorIs(t, s.Upload("nope", []string{pdf}), ErrCategoryNotFound)
}

func TestDeleteRemovesBothHalves(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create("Fees"))
	require.NoError(t, os.MkdirAll(s.IndexDir("Fees"), 0755))

	require.NoError(t, s.Delete("Fees"))

	_, err := os.Stat(s.DocumentsDir("Fees"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(s.IndexDir("Fees"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteWithoutIndexIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create("Fees"))
	// no index was ever built
	assert.NoError(t, s.Delete("Fees"))
	assert.ErrorIs(t, s.Delete("Fees"), ErrCategoryNotFound)
}

func TestCategoryIsolation(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create("A"))
	require.NoError(t, s.Create("B"))

	pdf := writeFile(t, t.TempDir(), "b.pdf", "content of B")
	require.NoError(t, s.Upload("B", []string{pdf}))
	require.NoError(t, os.MkdirAll(s.IndexDir("B"), 0755))

	require.NoError(t, s.Delete("A"))

	files, err := s.DocumentFiles("B")
	require.NoError(t, err)
	assert.Len(t, files, 1)
	_, err = os.Stat(s.IndexDir("B"))
	assert.NoError(t, err)
}

func TestFingerprintTracksDocumentChanges(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create("Fees"))

	src := t.TempDir()
	require.NoError(t, s.Upload("Fees", []string{writeFile(t, src, "a.pdf", "one")}))
	fp1, err := s.Fingerprint("Fees")
	require.NoError(t, err)

	fp2, err := s.Fingerprint("Fees")
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2, "same documents, same fingerprint")

	require.NoError(t, s.Upload("Fees", []string{writeFile(t, src, "b.pdf", "two")}))
	fp3, err := s.Fingerprint("Fees")
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}

func TestStaleness(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create("Fees"))
	src := t.TempDir()
	require.NoError(t, s.Upload("Fees", []string{writeFile(t, src, "a.pdf", "one")}))

	fp, err := s.Fingerprint("Fees")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(s.IndexDir("Fees"), 0755))
	require.NoError(t, WriteManifest(s.IndexDir("Fees"), &Manifest{Fingerprint: fp, ChunkCount: 1}))

	stale, err := s.Stale("Fees")
	require.NoError(t, err)
	assert.False(t, stale)

	require.NoError(t, s.Upload("Fees", []string{writeFile(t, src, "b.pdf", "two")}))
	stale, err = s.Stale("Fees")
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestStaleWithoutManifest(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create("Fees"))
	require.NoError(t, os.MkdirAll(s.IndexDir("Fees"), 0755))

	stale, err := s.Stale("Fees")
	require.NoError(t, err)
	assert.True(t, stale, "an index without a manifest counts as stale")
}

func TestLockSerializesPerCategory(t *testing.T) {
	s := newTestStore(t)

	unlock := s.Lock("Fees")
	done := make(chan struct{})
	go func() {
		u := s.Lock("Fees")
		u()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("second lock acquired while first still held")
	default:
	}

	unlock()
	<-done
}
