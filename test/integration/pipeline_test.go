// Package integration provides end-to-end tests (requires real storage on disk).
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/axiomgov/axiom/internal/analytics"
	"github.com/axiomgov/axiom/internal/config"
	"github.com/axiomgov/axiom/internal/embedding"
	"github.com/axiomgov/axiom/internal/generation"
	"github.com/axiomgov/axiom/internal/ingest"
	"github.com/axiomgov/axiom/internal/models"
	"github.com/axiomgov/axiom/internal/rag"
	"github.com/axiomgov/axiom/internal/rerank"
	"github.com/axiomgov/axiom/internal/risk"
	"github.com/axiomgov/axiom/internal/vector"
)

func TestIntegration_IngestAndAsk(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			VectorStoreDir:  filepath.Join(dir, "store"),
			AnalyticsDBPath: filepath.Join(dir, "analytics.db"),
		},
		Embedding: config.EmbeddingConfig{Provider: "mock", Dimensions: 32},
		Retrieval: config.RetrievalConfig{
			VectorDimension: 32, TopK: 5, MinEvidenceChunks: 1, MaxContextLength: 4096,
		},
		Ingest: config.IngestConfig{ChunkSize: 200, ChunkOverlap: 20},
	}

	embedder := embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	defer embedder.Close()

	store, err := vector.NewStore(cfg.Retrieval.VectorDimension)
	if err != nil {
		t.Fatal(err)
	}

	docPath := filepath.Join(dir, "model_risk_assessment.md")
	content := `# Model Risk Assessment

## Bias Evaluation
Model Name: CreditRiskNet
The model was evaluated for demographic parity across protected groups.
Fairness metrics show disparate impact below the 0.8 threshold.

## Validation Results
Backtesting on holdout data shows stable performance.
`
	if err := os.WriteFile(docPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	processor := ingest.NewProcessor(ingest.NewExtractor())
	chunker := ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	indexer := ingest.NewIndexer(processor, chunker, embedder, store, nil)
	ctx := context.Background()

	chunks, err := indexer.IndexFile(ctx, docPath)
	if err != nil {
		t.Fatal(err)
	}
	if chunks < 1 {
		t.Fatalf("expected at least 1 chunk, got %d", chunks)
	}

	classifier, err := risk.NewClassifier(ctx, embedder)
	if err != nil {
		t.Fatal(err)
	}
	gen := &generation.MockGenerator{
		Response: "The model was evaluated for demographic parity and disparate impact.",
	}
	engine := rag.NewEngine(store, embedder, rerank.NewReranker(), classifier,
		risk.NewCalibrator(cfg.Retrieval.MinEvidenceChunks), gen, &cfg.Retrieval, nil)

	resp, err := engine.AnswerQuestion(ctx, &models.QuestionRequest{
		Question: "How was the model evaluated for bias and demographic parity?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Response.Refused {
		t.Fatal("expected an answer, got a refusal")
	}
	if resp.Response.Answer == "" {
		t.Error("expected a non-empty answer")
	}
	if len(resp.Response.Citations) == 0 {
		t.Error("expected at least one citation")
	}
	if resp.RetrievedChunks < 1 {
		t.Errorf("expected retrieved chunks, got %d", resp.RetrievedChunks)
	}

	// Persist and reload the store: the reloaded copy must answer the same question.
	if err := store.Save(cfg.Storage.VectorStoreDir); err != nil {
		t.Fatal(err)
	}
	reloaded, err := vector.NewStore(cfg.Retrieval.VectorDimension)
	if err != nil {
		t.Fatal(err)
	}
	if err := reloaded.Load(cfg.Storage.VectorStoreDir); err != nil {
		t.Fatal(err)
	}
	if reloaded.Size() != store.Size() {
		t.Fatalf("reloaded store has %d chunks, want %d", reloaded.Size(), store.Size())
	}

	tracker, err := analytics.NewTracker(cfg.Storage.AnalyticsDBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer tracker.Close()
	err = tracker.TrackQuestion(ctx, &analytics.QuestionMetrics{
		QuestionID:       "q1",
		Question:         "How was the model evaluated for bias?",
		RiskCategory:     string(resp.Response.RiskCategory),
		ConfidenceScore:  resp.Response.ConfidenceScore,
		EvidenceCoverage: resp.Response.EvidenceCoverage,
		RetrievedChunks:  resp.RetrievedChunks,
	})
	if err != nil {
		t.Fatal(err)
	}
	metrics, err := tracker.GetSystemMetrics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if metrics.TotalQuestions != 1 {
		t.Errorf("expected 1 tracked question, got %d", metrics.TotalQuestions)
	}
}
