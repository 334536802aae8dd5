package risk

import (
	"context"
	"testing"

	"github.com/axiomgov/axiom/internal/embedding"
	"github.com/axiomgov/axiom/internal/models"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(context.Background(), embedding.NewMockEmbedder(64))
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestClassify_KeywordDriven(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		name     string
		question string
		answer   string
		want     models.RiskCategory
	}{
		{
			name:     "bias",
			question: "Does the model exhibit bias or discrimination against protected demographic groups?",
			answer:   "Fairness testing shows no disparate impact; demographic parity holds.",
			want:     models.RiskBias,
		},
		{
			name:     "explainability",
			question: "How is explainability achieved, and are SHAP or LIME used?",
			answer:   "Feature importance and interpretability reports provide transparency into the black box.",
			want:     models.RiskExplainability,
		},
		{
			name:     "compliance",
			question: "What governance policy covers GDPR compliance and privacy audits?",
			answer:   "The audit trail satisfies the regulation and legal requirements.",
			want:     models.RiskCompliance,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), tt.question, tt.answer)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier(t)
	question := "Is data drift monitored in production?"
	answer := "Data quality checks and distribution monitoring run daily."
	first, err := c.Classify(context.Background(), question, answer)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for i := 0; i < 3; i++ {
		got, err := c.Classify(context.Background(), question, answer)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if got != first {
			t.Fatalf("classification not deterministic: %s != %s", got, first)
		}
	}
}

func TestClassifyMultiLabel(t *testing.T) {
	c := newTestClassifier(t)
	// Text hitting both bias and compliance keyword lists heavily.
	question := "Does the bias audit satisfy the fairness regulation and governance policy?"
	answer := "Discrimination and disparity metrics are reviewed for compliance with GDPR privacy requirements."

	categories, err := c.ClassifyMultiLabel(context.Background(), question, answer, 0.2)
	if err != nil {
		t.Fatalf("ClassifyMultiLabel: %v", err)
	}
	if len(categories) == 0 {
		t.Fatal("expected at least one category")
	}
	found := make(map[models.RiskCategory]bool)
	for _, cat := range categories {
		found[cat] = true
	}
	if !found[models.RiskBias] && !found[models.RiskCompliance] {
		t.Errorf("expected bias or compliance in %v", categories)
	}
}

func TestClassifyMultiLabel_FallbackUnknown(t *testing.T) {
	c := newTestClassifier(t)
	// A threshold above any attainable fused score forces the fallback.
	categories, err := c.ClassifyMultiLabel(context.Background(), "anything", "anything", 1.1)
	if err != nil {
		t.Fatalf("ClassifyMultiLabel: %v", err)
	}
	if len(categories) != 1 || categories[0] != models.RiskUnknown {
		t.Errorf("got %v, want [unknown]", categories)
	}
}

func TestRuleScores(t *testing.T) {
	scores := ruleScores("the deployment latency and throughput in production infrastructure")
	if scores[models.RiskDeployment] <= scores[models.RiskBias] {
		t.Errorf("deployment score %f not above bias score %f",
			scores[models.RiskDeployment], scores[models.RiskBias])
	}
	total := 0.0
	for _, s := range scores {
		total += s
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("rule scores sum to %f, want 1", total)
	}
}

func TestRuleScores_NoMatches(t *testing.T) {
	scores := ruleScores("zzz qqq xxx")
	for category, s := range scores {
		if s != 0 {
			t.Errorf("category %s: got %f, want 0", category, s)
		}
	}
}
