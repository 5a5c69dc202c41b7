package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrEmptyName        = errors.New("category name cannot be empty")
	ErrInvalidName      = errors.New("category name contains invalid characters")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrUnsupportedFile  = errors.New("unsupported file type")
)

const (
	documentsDirName = "document_library"
	indexesDirName   = "vector_stores"
)

// Store manages named categories on the filesystem. Each category owns a
// document directory and, once processed, a persisted vector index directory.
type Store struct {
	dataDir string
	log     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at dataDir, bootstrapping the two base
// directories if they do not exist.
func NewStore(dataDir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for _, sub := range []string{documentsDirName, indexesDirName} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}
	return &Store{
		dataDir: dataDir,
		log:     log,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// DocumentsDir returns the directory holding a category's raw files.
func (s *Store) DocumentsDir(name string) string {
	return filepath.Join(s.dataDir, documentsDirName, name)
}

// IndexDir returns the directory holding a category's persisted index.
func (s *Store) IndexDir(name string) string {
	return filepath.Join(s.dataDir, indexesDirName, name)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}

// Create registers a new empty category.
func (s *Store) Create(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	dir := s.DocumentsDir(name)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrCategoryExists, name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	s.log.Info("category created", zap.String("category", name))
	return nil
}

// List returns all category names in sorted order.
func (s *Store) List() ([]string, error) {
	return listSubdirs(filepath.Join(s.dataDir, documentsDirName))
}

// Processed returns the names of categories that have a persisted index.
func (s *Store) Processed() ([]string, error) {
	return listSubdirs(filepath.Join(s.dataDir, indexesDirName))
}

func listSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a category has been created.
func (s *Store) Exists(name string) bool {
	if validateName(name) != nil {
		return false
	}
	info, err := os.Stat(s.DocumentsDir(name))
	return err == nil && info.IsDir()
}

// Delete irreversibly removes a category's documents and index. Each half
// is removed independently, so a missing index does not block deletion.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if !s.Exists(name) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}

	unlock := s.Lock(name)
	defer unlock()

	if err := os.RemoveAll(s.DocumentsDir(name)); err != nil {
		return fmt.Errorf("failed to remove documents: %w", err)
	}
	if err := os.RemoveAll(s.IndexDir(name)); err != nil {
		return fmt.Errorf("failed to remove index: %w", err)
	}
	s.log.Info("category deleted", zap.String("category", name))
	return nil
}

// Upload copies PDF files into the category's document directory. A file
// with the same name overwrites the existing one. Non-PDF inputs are
// rejected up front, before anything is copied.
func (s *Store) Upload(name string, srcPaths []string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if !s.Exists(name) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	for _, src := range srcPaths {
		if !strings.EqualFold(filepath.Ext(src), ".pdf") {
			return fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(src))
		}
	}

	for _, src := range srcPaths {
		dst := filepath.Join(s.DocumentsDir(name), filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to upload %s: %w", filepath.Base(src), err)
		}
	}
	s.log.Info("documents uploaded",
		zap.String("category", name), zap.Int("count", len(srcPaths)))
	return nil
}

// DocumentFiles lists the category's PDF files as absolute paths, sorted by
// name so one processing run always sees a stable order.
func (s *Store) DocumentFiles(name string) ([]string, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	dir := s.DocumentsDir(name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Lock acquires the per-category mutex and returns its release function.
// Two concurrent Process calls for the same category serialize here; other
// categories are unaffected.
func (s *Store) Lock(name string) func() {
	s.mu.Lock()
	m, ok := s.locks[name]
	if !ok {
		m = &sync.Mutex{}
		s.locks[name] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
