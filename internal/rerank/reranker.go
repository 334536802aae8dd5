// Package rerank re-scores vector search candidates with lexical signals and
// enforces a per-document diversity quota on the final ranking.
package rerank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/axiomgov/axiom/internal/models"
)

// Reranker re-scores retrieval candidates using query term overlap and
// section-title relevance, then limits how many results any single source
// document may contribute. The quota is strict: a document never exceeds its
// cap even when that leaves fewer than top_k results.
type Reranker struct{}

// NewReranker creates a Reranker.
func NewReranker() *Reranker {
	return &Reranker{}
}

// Rerank scores candidates against the query and returns up to topK results
// ordered by descending reranked score. The reranked score is always at least
// the original score.
func (r *Reranker) Rerank(query string, candidates []models.RetrievalResult, topK int) []models.RerankedResult {
	if len(candidates) == 0 {
		return []models.RerankedResult{}
	}
	if topK <= 0 {
		topK = len(candidates)
	}

	terms := queryTerms(query)
	reranked := make([]models.RerankedResult, 0, len(candidates))
	for _, cand := range candidates {
		termBoost := termMatchRatio(terms, strings.ToLower(cand.Text))

		sectionBoost := 0.0
		sectionLower := strings.ToLower(cand.SectionTitle)
		for _, term := range terms {
			if strings.Contains(sectionLower, term) {
				sectionBoost = 0.1
				break
			}
		}

		score := cand.Score * (1.0 + 0.2*termBoost + sectionBoost)
		reranked = append(reranked, models.RerankedResult{
			ChunkID:         cand.ChunkID,
			Text:            cand.Text,
			SectionTitle:    cand.SectionTitle,
			Metadata:        cand.Metadata,
			OriginalScore:   cand.Score,
			RerankedScore:   score,
			RankExplanation: explain(cand, termBoost, sectionBoost),
		})
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].RerankedScore > reranked[j].RerankedScore
	})

	diverse := applyDiversity(reranked, topK)
	if len(diverse) > topK {
		diverse = diverse[:topK]
	}
	return diverse
}

// queryTerms splits the query by whitespace, lower-cases, and deduplicates,
// preserving first-seen order.
func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	return terms
}

// termMatchRatio returns the fraction of query terms present in text.
func termMatchRatio(terms []string, textLower string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matching := 0
	for _, term := range terms {
		if strings.Contains(textLower, term) {
			matching++
		}
	}
	return float64(matching) / float64(len(terms))
}

// explain builds a human-readable reason string from the scoring signals.
func explain(cand models.RetrievalResult, termBoost, sectionBoost float64) string {
	var reasons []string
	if cand.Score > 0.8 {
		reasons = append(reasons, "high semantic similarity")
	} else if cand.Score > 0.6 {
		reasons = append(reasons, "moderate semantic similarity")
	}
	if termBoost > 0.5 {
		reasons = append(reasons, "strong query term match")
	} else if termBoost > 0 {
		reasons = append(reasons, "partial query term match")
	}
	if sectionBoost > 0 {
		reasons = append(reasons, "relevant section title")
	}
	if docType := cand.Metadata["doc_type"]; docType != "" {
		reasons = append(reasons, fmt.Sprintf("%s document", docType))
	}
	if len(reasons) == 0 {
		return "retrieved by vector similarity"
	}
	return strings.Join(reasons, "; ")
}

// applyDiversity walks the sorted results and admits each one only while its
// source document (metadata filename) is under max(2, topK/3) admissions.
func applyDiversity(sorted []models.RerankedResult, topK int) []models.RerankedResult {
	maxPerDoc := topK / 3
	if maxPerDoc < 2 {
		maxPerDoc = 2
	}
	perDoc := make(map[string]int)
	diverse := make([]models.RerankedResult, 0, topK)
	for _, res := range sorted {
		doc := res.Metadata["filename"]
		if perDoc[doc] >= maxPerDoc {
			continue
		}
		perDoc[doc]++
		diverse = append(diverse, res)
	}
	return diverse
}
