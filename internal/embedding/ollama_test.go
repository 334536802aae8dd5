package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestOllamaEmbedder_Embed(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path: got %s, want /api/embeddings", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model: got %s, want test-model", req.Model)
		}
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 3, 10, 5)
	emb, err := e.Embed(context.Background(), "what is model bias")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(emb) != 3 {
		t.Fatalf("dimensions: got %d, want 3", len(emb))
	}
	if emb[1] != float32(0.2) {
		t.Errorf("emb[1]: got %f, want 0.2", emb[1])
	}

	// Second call for the same text hits the cache.
	if _, err := e.Embed(context.Background(), "what is model bias"); err != nil {
		t.Fatalf("cached Embed: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls: got %d, want 1 (cache hit)", calls.Load())
	}
}

func TestOllamaEmbedder_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{0.1, 0.2}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 3, 0, 5)
	if _, err := e.Embed(context.Background(), "short vector"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "missing-model", 3, 0, 5)
	_, err := e.Embed(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestOllamaEmbedder_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 3, 0, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Embed(ctx, "cancelled"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
