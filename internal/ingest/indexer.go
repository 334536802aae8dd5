package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/axiomgov/axiom/internal/embedding"
	"github.com/axiomgov/axiom/internal/models"
	"github.com/axiomgov/axiom/internal/vector"
)

// Indexer runs the full ingestion pipeline for documents: extract, split into
// sections, classify, chunk, embed, and add to the vector store.
type Indexer struct {
	processor *Processor
	chunker   *Chunker
	embedder  embedding.Embedder
	store     *vector.Store
	logger    *zap.Logger
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(processor *Processor, chunker *Chunker, embedder embedding.Embedder, store *vector.Store, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		processor: processor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// IndexFile ingests one document and returns the number of chunks added.
func (x *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	doc, err := x.processor.ProcessFile(path)
	if err != nil {
		return 0, err
	}
	chunks := x.chunker.ChunkDocument(doc.Sections, doc.Metadata)
	if len(chunks) == 0 {
		x.logger.Warn("document produced no chunks", zap.String("path", path))
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks for %s: %w", path, err)
	}

	metadata := make([]models.ChunkMetadata, len(chunks))
	for i := range chunks {
		metadata[i] = doc.Metadata
	}
	if err := x.store.Add(ctx, vectors, chunks, metadata); err != nil {
		return 0, fmt.Errorf("index %s: %w", path, err)
	}

	x.logger.Info("indexed document",
		zap.String("path", path),
		zap.String("doc_type", doc.Metadata["doc_type"]),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// IndexDirectory ingests every supported file under dir. extensions filters
// by lower-cased file extension (with dot); empty means all supported types.
// Returns the total number of chunks added.
func (x *Indexer) IndexDirectory(ctx context.Context, dir string, extensions []string) (int, error) {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	total := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowed) > 0 && !allowed[ext] {
			return nil
		}
		count, err := x.IndexFile(ctx, path)
		if err != nil {
			// A malformed document should not abort the whole directory.
			x.logger.Error("failed to index document", zap.String("path", path), zap.Error(err))
			return nil
		}
		total += count
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("walk %s: %w", dir, err)
	}
	return total, nil
}
