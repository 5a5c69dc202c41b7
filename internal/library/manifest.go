package library

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const manifestFileName = "manifest.json"

// Manifest records what a category's index was built from, so a changed
// document set can be detected as stale without rebuilding.
type Manifest struct {
	Fingerprint string    `json:"fingerprint"`
	ChunkCount  int       `json:"chunk_count"`
	Files       []string  `json:"files"`
	BuiltAt     time.Time `json:"built_at"`
}

// Fingerprint hashes the category's current document set: file names plus
// file contents, in sorted order. Same documents, same fingerprint.
func (s *Store) Fingerprint(name string) (string, error) {
	files, err := s.DocumentFiles(name)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
		}
		fmt.Fprintf(h, "%s\n", filepath.Base(path))
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("failed to hash %s: %w", filepath.Base(path), err)
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// WriteManifest stores the manifest inside an index directory. The file is
// staged and renamed into place so a reader never sees a half-written
// manifest during a rebuild.
func WriteManifest(indexDir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tmp, err := os.CreateTemp(indexDir, manifestFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return os.Rename(tmp.Name(), filepath.Join(indexDir, manifestFileName))
}

// ReadManifest loads the manifest of a processed category, or nil when the
// index predates manifests or none exists.
func (s *Store) ReadManifest(name string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.IndexDir(name), manifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Stale reports whether the category's documents changed since its index
// was built. A missing manifest counts as stale; the index is still served.
func (s *Store) Stale(name string) (bool, error) {
	m, err := s.ReadManifest(name)
	if err != nil {
		return false, err
	}
	if m == nil {
		return true, nil
	}
	current, err := s.Fingerprint(name)
	if err != nil {
		return false, err
	}
	return current != m.Fingerprint, nil
}
