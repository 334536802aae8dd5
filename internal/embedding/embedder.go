// Package embedding provides the text-embedding collaborator: an HTTP client
// for Ollama, an optional local ONNX backend, and a deterministic mock.
package embedding

import (
	"context"
	"fmt"

	"github.com/axiomgov/axiom/internal/config"
)

// Embedder produces vector embeddings for text. Embeddings are treated as a
// black box: the pipeline only requires that returned vectors match the
// configured dimension. A failed call surfaces as an error, never as a
// silent zero vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// NewEmbedder creates an embedder for the configured provider.
// Supported providers: "ollama" (default), "onnx" (requires CGO), "mock".
func NewEmbedder(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimensions, cfg.CacheSize, cfg.TimeoutSeconds), nil
	case "onnx":
		return NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: ollama, onnx, mock)", cfg.Provider)
	}
}
