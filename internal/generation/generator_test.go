package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/axiomgov/axiom/internal/config"
)

func TestOllamaGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path: got %s, want /api/generate", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.Model != "test-model" {
			t.Errorf("model: got %s, want test-model", req.Model)
		}
		if req.Options["num_predict"] != float64(256) {
			t.Errorf("num_predict: got %v, want 256", req.Options["num_predict"])
		}
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Response: "The validation report documents quarterly bias testing.",
			Done:     true,
		})
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "test-model", 256, 5)
	answer, err := g.Generate(context.Background(), "What bias testing is performed?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(answer, "quarterly bias testing") {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestOllamaGenerator_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "test-model", 0, 5)
	if _, err := g.Generate(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestOllamaGenerator_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "test-model", 0, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, "cancelled"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestMockGenerator_RecordsPrompts(t *testing.T) {
	g := NewMockGenerator()
	g.Response = "canned answer"
	answer, err := g.Generate(context.Background(), "prompt one")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "canned answer" {
		t.Errorf("answer: got %q", answer)
	}
	if len(g.Prompts) != 1 || g.Prompts[0] != "prompt one" {
		t.Errorf("Prompts: got %v", g.Prompts)
	}
}

func TestNewGenerator_Providers(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantErr  bool
	}{
		{"mock", "mock", false},
		{"ollama", "ollama", false},
		{"default is ollama", "", false},
		{"unknown", "gpt2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(&config.GenerationConfig{Provider: tt.provider})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewGenerator: %v", err)
			}
			_ = g.Close()
		})
	}
}
