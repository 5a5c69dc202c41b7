package documents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/docuquery/cli/internal/domain"
	"github.com/docuquery/cli/internal/library"
	"github.com/docuquery/cli/internal/vectorindex"
)

// ErrNoDocuments is returned when a category has nothing to index.
var ErrNoDocuments = errors.New("no documents in category")

// Embedder is the index-build-time view of the embedding provider.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Processor builds a category's vector index: enumerate files, parse pages,
// chunk, embed, persist. A successful run fully replaces the previous index;
// a failed run leaves it untouched.
type Processor struct {
	store    *library.Store
	parser   Parser
	embedder Embedder
	splitter *Splitter
	log      *zap.Logger
}

// NewProcessor creates a new index builder.
func NewProcessor(store *library.Store, parser Parser, embedder Embedder, chunkSize, chunkOverlap int, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		store:    store,
		parser:   parser,
		embedder: embedder,
		splitter: NewSplitter(chunkSize, chunkOverlap),
		log:      log,
	}
}

// Process rebuilds the index for one category.
func (p *Processor) Process(ctx context.Context, category string) error {
	if !p.store.Exists(category) {
		return fmt.Errorf("%w: %s", library.ErrCategoryNotFound, category)
	}

	unlock := p.store.Lock(category)
	defer unlock()

	files, err := p.store.DocumentFiles(category)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: %s", ErrNoDocuments, category)
	}

	fingerprint, err := p.store.Fingerprint(category)
	if err != nil {
		return err
	}

	var docs []domain.Document
	fileNames := make([]string, 0, len(files))
	for _, file := range files {
		pages, err := p.parser.Parse(file)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(file), err)
		}
		docs = append(docs, pages...)
		fileNames = append(fileNames, filepath.Base(file))
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w: no extractable text in %s", ErrNoDocuments, category)
	}

	chunks := p.splitter.Split(docs)
	p.log.Info("documents chunked",
		zap.String("category", category),
		zap.Int("pages", len(docs)),
		zap.Int("chunks", len(chunks)))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	idx, err := vectorindex.Build(chunks, vectors)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	return p.persist(category, idx, &library.Manifest{
		Fingerprint: fingerprint,
		ChunkCount:  idx.Size(),
		Files:       fileNames,
		BuiltAt:     time.Now().UTC(),
	})
}

// persist writes the new index and manifest into the live directory. Both
// files are staged to a temporary name and renamed into place, so the
// directory keeps existing across a rebuild and a concurrent reader always
// sees a complete index, old or new, never a partial write.
func (p *Processor) persist(category string, idx *vectorindex.Index, manifest *library.Manifest) error {
	liveDir := p.store.IndexDir(category)
	created := false
	if _, err := os.Stat(liveDir); os.IsNotExist(err) {
		created = true
	}

	if err := idx.Save(liveDir); err != nil {
		if created {
			os.RemoveAll(liveDir)
		}
		return err
	}
	if err := library.WriteManifest(liveDir, manifest); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	p.log.Info("index persisted",
		zap.String("category", category), zap.Int("chunks", idx.Size()))
	return nil
}
