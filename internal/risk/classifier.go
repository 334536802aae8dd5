// Package risk classifies question/answer pairs into governance risk
// categories and calibrates answer confidence.
package risk

import (
	"context"
	"fmt"
	"strings"

	"github.com/axiomgov/axiom/internal/embedding"
	"github.com/axiomgov/axiom/internal/models"
	"github.com/axiomgov/axiom/internal/vector"
)

// categoryKeywords drives the rule-based half of classification. Keywords are
// matched as substrings of the lower-cased question+answer text.
var categoryKeywords = map[models.RiskCategory][]string{
	models.RiskBias: {
		"bias", "fairness", "discrimination", "disparity", "equity",
		"protected", "demographic", "parity", "disparate impact",
	},
	models.RiskExplainability: {
		"explainability", "interpretability", "shap", "lime",
		"feature importance", "explain", "transparency", "black box",
	},
	models.RiskData: {
		"data quality", "data drift", "distribution", "missing data",
		"outlier", "data validation", "feature", "dataset",
	},
	models.RiskDeployment: {
		"deployment", "production", "latency", "throughput", "scaling",
		"infrastructure", "monitoring", "performance", "assumption",
	},
	models.RiskCompliance: {
		"compliance", "regulation", "gdpr", "privacy", "audit",
		"governance", "policy", "legal", "requirement",
	},
}

// Classifier fuses keyword matching with embedding similarity against
// per-category prototype vectors. Prototypes are computed once at
// construction by embedding each category's keyword list.
type Classifier struct {
	embedder   embedding.Embedder
	prototypes map[models.RiskCategory][]float32
}

// NewClassifier creates a classifier and precomputes the category prototype
// embeddings via the embedder.
func NewClassifier(ctx context.Context, embedder embedding.Embedder) (*Classifier, error) {
	c := &Classifier{
		embedder:   embedder,
		prototypes: make(map[models.RiskCategory][]float32, len(categoryKeywords)),
	}
	for _, category := range models.RiskCategories {
		text := strings.Join(categoryKeywords[category], " ")
		emb, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed prototype for category %s: %w", category, err)
		}
		c.prototypes[category] = emb
	}
	return c, nil
}

// Classify returns the single best category for the question/answer pair, or
// RiskUnknown when no category's fused score exceeds 0.1.
func (c *Classifier) Classify(ctx context.Context, question, answer string) (models.RiskCategory, error) {
	scores, err := c.fusedScores(ctx, question, answer)
	if err != nil {
		return models.RiskUnknown, err
	}
	best := models.RiskUnknown
	bestScore := 0.0
	for _, category := range models.RiskCategories {
		if scores[category] > bestScore {
			best = category
			bestScore = scores[category]
		}
	}
	if bestScore > 0.1 {
		return best, nil
	}
	return models.RiskUnknown, nil
}

// ClassifyMultiLabel returns every category whose fused score is at least
// threshold, in fixed category order. If none qualify it returns [unknown].
func (c *Classifier) ClassifyMultiLabel(ctx context.Context, question, answer string, threshold float64) ([]models.RiskCategory, error) {
	scores, err := c.fusedScores(ctx, question, answer)
	if err != nil {
		return nil, err
	}
	var categories []models.RiskCategory
	for _, category := range models.RiskCategories {
		if scores[category] >= threshold {
			categories = append(categories, category)
		}
	}
	if len(categories) == 0 {
		categories = []models.RiskCategory{models.RiskUnknown}
	}
	return categories, nil
}

// fusedScores combines rule scores (weight 0.6) and embedding scores
// (weight 0.4) for every non-unknown category.
func (c *Classifier) fusedScores(ctx context.Context, question, answer string) (map[models.RiskCategory]float64, error) {
	combined := strings.ToLower(question + " " + answer)

	ruleScores := ruleScores(combined)
	embScores, err := c.embeddingScores(ctx, combined)
	if err != nil {
		return nil, err
	}

	fused := make(map[models.RiskCategory]float64, len(models.RiskCategories))
	for _, category := range models.RiskCategories {
		fused[category] = 0.6*ruleScores[category] + 0.4*embScores[category]
	}
	return fused, nil
}

// ruleScores counts keyword hits per category, normalizes each by its keyword
// count, then renormalizes the five scores to sum to 1 when any hit occurred.
func ruleScores(text string) map[models.RiskCategory]float64 {
	scores := make(map[models.RiskCategory]float64, len(models.RiskCategories))
	total := 0.0
	for _, category := range models.RiskCategories {
		keywords := categoryKeywords[category]
		count := 0
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				count++
			}
		}
		score := float64(count) / float64(len(keywords))
		scores[category] = score
		total += score
	}
	if total > 0 {
		for category := range scores {
			scores[category] /= total
		}
	}
	return scores
}

// embeddingScores computes clamped cosine similarity between the text
// embedding and each category prototype, renormalized to sum to 1.
func (c *Classifier) embeddingScores(ctx context.Context, text string) (map[models.RiskCategory]float64, error) {
	emb, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed classification text: %w", err)
	}

	scores := make(map[models.RiskCategory]float64, len(models.RiskCategories))
	total := 0.0
	for _, category := range models.RiskCategories {
		sim := vector.Cosine(emb, c.prototypes[category])
		if sim < 0 {
			sim = 0
		}
		scores[category] = sim
		total += sim
	}
	if total > 0 {
		for category := range scores {
			scores[category] /= total
		}
	}
	return scores, nil
}
