package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9100
embedding:
  provider: mock
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Host = %q, want localhost default", cfg.Server.Host)
	}
	if cfg.Embedding.Provider != "mock" {
		t.Errorf("Provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("Dimensions = %d, want 384", cfg.Embedding.Dimensions)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.MinEvidenceChunks != 2 {
		t.Errorf("MinEvidenceChunks = %d, want 2", cfg.Retrieval.MinEvidenceChunks)
	}
	if cfg.Retrieval.MaxContextLength != 2048 {
		t.Errorf("MaxContextLength = %d, want 2048", cfg.Retrieval.MaxContextLength)
	}
	if cfg.Generation.MaxTokens != 512 {
		t.Errorf("Generation.MaxTokens = %d, want 512", cfg.Generation.MaxTokens)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestVectorDimensionFollowsEmbedding(t *testing.T) {
	cfg := &Config{}
	cfg.Embedding.Dimensions = 768
	ApplyDefaults(cfg)
	if cfg.Retrieval.VectorDimension != 768 {
		t.Errorf("VectorDimension = %d, want 768", cfg.Retrieval.VectorDimension)
	}
}

func TestExpandPathRelative(t *testing.T) {
	got := expandPath("./data/store", "/etc/axiom")
	if got != "/etc/axiom/data/store" {
		t.Errorf("got %q", got)
	}
	if expandPath("/abs/path", "/etc/axiom") != "/abs/path" {
		t.Error("absolute path should be unchanged")
	}
}
