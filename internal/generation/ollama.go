package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaGenerator calls a local Ollama server for text generation.
// Each call carries a bounded timeout; a timeout or transport failure is
// returned to the caller and never retried here.
type OllamaGenerator struct {
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaGenerator creates a generator for the Ollama server at baseURL.
// timeoutSeconds bounds each HTTP call; 0 means 120 seconds.
func NewOllamaGenerator(baseURL, model string, maxTokens, timeoutSeconds int) *OllamaGenerator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 120
	}
	return &OllamaGenerator{
		baseURL:   baseURL,
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

// Generate returns the model's completion for prompt.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
	}
	if g.maxTokens > 0 {
		reqBody.Options = map[string]interface{}{"num_predict": g.maxTokens}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation service call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generation service returned status %d: %s", resp.StatusCode, string(msg))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return result.Response, nil
}

// Close is a no-op for the HTTP generator.
func (g *OllamaGenerator) Close() error {
	return nil
}
