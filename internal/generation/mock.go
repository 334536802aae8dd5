package generation

import (
	"context"
)

// MockGenerator returns canned answers for tests and offline development.
// If Response is set it is returned verbatim; otherwise a generic
// evidence-citing answer is produced.
type MockGenerator struct {
	Response string
	Err      error
	// Prompts records every prompt passed to Generate, for assertions.
	Prompts []string
}

// NewMockGenerator returns a mock with a generic default answer.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the prompt and returns the configured response.
func (g *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.Prompts = append(g.Prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	if g.Response != "" {
		return g.Response, nil
	}
	return "Based on the provided evidence, the documented controls address this question.", nil
}

// Close is a no-op for MockGenerator.
func (g *MockGenerator) Close() error {
	return nil
}
