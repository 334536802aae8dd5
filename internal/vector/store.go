// Package vector provides the in-memory vector store with metadata filtering,
// exact nearest-neighbor search, and disk persistence.
package vector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/axiomgov/axiom/internal/models"
)

// ErrDimensionMismatch is returned when a vector's length disagrees with the
// store's configured dimension. The store is never mutated in this case.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Store holds embedding vectors plus parallel chunk and metadata records.
// The three slices are always equal in length; position i in each refers to
// the same logical entry. Entries are appended, never reordered or deleted.
//
// Concurrent searches may run in parallel; Add and Load are exclusive with
// all other operations (single-writer/many-reader discipline).
type Store struct {
	dimension int
	vectors   [][]float32
	chunks    []models.Chunk
	metadata  []models.ChunkMetadata
	mu        sync.RWMutex
}

// NewStore creates an empty store with the given fixed dimension.
func NewStore(dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return &Store{
		dimension: dimension,
		vectors:   make([][]float32, 0),
		chunks:    make([]models.Chunk, 0),
		metadata:  make([]models.ChunkMetadata, 0),
	}, nil
}

// Dimension returns the store's fixed vector dimension.
func (s *Store) Dimension() int {
	return s.dimension
}

// Size returns the number of stored entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Add appends vectors with their chunks and metadata in lock-step.
// All inputs are validated before any mutation: if any vector's length differs
// from the store dimension, or the three slices differ in length, nothing is added.
func (s *Store) Add(ctx context.Context, vectors [][]float32, chunks []models.Chunk, metadata []models.ChunkMetadata) error {
	if len(vectors) != len(chunks) || len(vectors) != len(metadata) {
		return fmt.Errorf("parallel input length mismatch: %d vectors, %d chunks, %d metadata",
			len(vectors), len(chunks), len(metadata))
	}
	for i, vec := range vectors {
		if len(vec) != s.dimension {
			return fmt.Errorf("%w: vector %d has %d dimensions, store expects %d",
				ErrDimensionMismatch, i, len(vec), s.dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range vectors {
		vec := make([]float32, s.dimension)
		copy(vec, vectors[i])
		s.vectors = append(s.vectors, vec)
		s.chunks = append(s.chunks, chunks[i])
		if metadata[i] == nil {
			s.metadata = append(s.metadata, models.ChunkMetadata{})
		} else {
			s.metadata = append(s.metadata, metadata[i])
		}
	}
	return nil
}

// Search returns up to k entries nearest to query by squared Euclidean distance,
// as similarity scores 1/(1+d) in descending order. Ties are broken by insertion
// order. When filters are given, 3×k candidates are ranked before filtering, so
// filtered search is best-effort: fewer than k results may be returned even when
// more matching entries exist. An empty store yields an empty result.
func (s *Store) Search(ctx context.Context, query []float32, k int, filters map[string]string) ([]models.RetrievalResult, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			ErrDimensionMismatch, len(query), s.dimension)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 || len(s.vectors) == 0 {
		return []models.RetrievalResult{}, nil
	}

	type scored struct {
		idx  int
		dist float64
	}
	candidates := make([]scored, len(s.vectors))
	for i, vec := range s.vectors {
		candidates[i] = scored{idx: i, dist: SquaredL2(query, vec)}
	}
	// Stable sort keeps insertion order for equal distances.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	fetchK := k
	if len(filters) > 0 {
		fetchK = 3 * k
	}
	if fetchK > len(candidates) {
		fetchK = len(candidates)
	}

	results := make([]models.RetrievalResult, 0, k)
	for _, c := range candidates[:fetchK] {
		if len(filters) > 0 && !s.metadata[c.idx].Matches(filters) {
			continue
		}
		chunk := s.chunks[c.idx]
		results = append(results, models.RetrievalResult{
			ChunkID:      chunk.ChunkID,
			Text:         chunk.Text,
			SectionTitle: chunk.SectionTitle,
			Metadata:     s.metadata[c.idx],
			Score:        1.0 / (1.0 + c.dist),
		})
		if len(results) >= k {
			break
		}
	}
	return results, nil
}

// Stats summarizes the store contents.
type Stats struct {
	TotalChunks int            `json:"total_chunks"`
	Dimension   int            `json:"dimension"`
	DocTypes    map[string]int `json:"doc_types"`
}

// GetStats returns the entry count and a histogram of the doc_type metadata field.
// Entries without a doc_type are counted under "unknown".
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docTypes := make(map[string]int)
	for _, meta := range s.metadata {
		docType, ok := meta["doc_type"]
		if !ok || docType == "" {
			docType = "unknown"
		}
		docTypes[docType]++
	}
	return Stats{
		TotalChunks: len(s.vectors),
		Dimension:   s.dimension,
		DocTypes:    docTypes,
	}
}
