// Package generation provides the answer-generation collaborator: an HTTP
// client for Ollama and a deterministic mock for tests.
package generation

import (
	"context"
	"fmt"

	"github.com/axiomgov/axiom/internal/config"
)

// Generator produces an answer for an assembled prompt. Generation is treated
// as a black box: the pipeline hands over a prompt and receives text. A failed
// call surfaces as an error and the pipeline aborts rather than fabricating
// an answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// NewGenerator creates a generator for the configured provider.
// Supported providers: "ollama" (default), "mock".
func NewGenerator(cfg *config.GenerationConfig) (Generator, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model, cfg.MaxTokens, cfg.TimeoutSeconds), nil
	case "mock":
		return NewMockGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s (supported: ollama, mock)", cfg.Provider)
	}
}
