package models

import "testing"

func TestQuestionRequestValidate(t *testing.T) {
	t.Run("empty question rejected", func(t *testing.T) {
		q := &QuestionRequest{}
		if err := q.Validate(5); err == nil {
			t.Fatal("expected error for empty question")
		}
	})

	t.Run("top_k defaults applied", func(t *testing.T) {
		q := &QuestionRequest{Question: "what is the bias risk?"}
		if err := q.Validate(5); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.TopK != 5 {
			t.Errorf("TopK = %d, want 5", q.TopK)
		}
	})

	t.Run("top_k capped", func(t *testing.T) {
		q := &QuestionRequest{Question: "q", TopK: 500}
		if err := q.Validate(5); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.TopK != 50 {
			t.Errorf("TopK = %d, want 50", q.TopK)
		}
	})
}

func TestChunkMetadataMatches(t *testing.T) {
	meta := ChunkMetadata{"doc_type": "bias", "filename": "report.pdf"}

	tests := []struct {
		name    string
		filters map[string]string
		want    bool
	}{
		{"nil filters match", nil, true},
		{"exact match", map[string]string{"doc_type": "bias"}, true},
		{"all keys must match", map[string]string{"doc_type": "bias", "filename": "report.pdf"}, true},
		{"value mismatch", map[string]string{"doc_type": "risk"}, false},
		{"missing key", map[string]string{"version": "1.0"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := meta.Matches(tt.filters); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.filters, got, tt.want)
			}
		})
	}
}

func TestParseRiskCategory(t *testing.T) {
	if got := ParseRiskCategory("compliance"); got != RiskCompliance {
		t.Errorf("got %s", got)
	}
	if got := ParseRiskCategory("nonsense"); got != RiskUnknown {
		t.Errorf("got %s", got)
	}
}
