package embedding

import (
	"context"
	"math"

	"github.com/axiomgov/axiom/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline development.
// The same text always yields the same unit-length vector, and texts sharing
// words produce correlated vectors, so similarity search behaves plausibly.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a deterministic embedder with the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a unit-length vector derived from the hashes of the words in text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	words := splitWords(text)
	if len(words) == 0 {
		words = []string{""}
	}
	for _, word := range words {
		h := hashString(word)
		for i := 0; i < e.dimensions; i++ {
			emb[i] += float32(math.Sin(float64(h*(i+1))) * 0.1)
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
