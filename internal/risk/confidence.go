package risk

import (
	"strings"

	"github.com/axiomgov/axiom/internal/models"
	"github.com/axiomgov/axiom/pkg/utils"
)

// hedgingPhrases lower the final confidence; each occurrence costs 0.1 up to
// a 0.5 cap.
var hedgingPhrases = []string{
	"may", "might", "could", "possibly", "perhaps",
	"unclear", "uncertain", "not sure", "appears to",
	"seems to", "likely", "probably",
}

// consistencyStopWords are excluded when collecting content terms from
// evidence chunks.
var consistencyStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true, "for": true,
}

// Calibrator produces a confidence score in [0,1] for an answer by combining
// retrieval quality, evidence coverage, answer quality heuristics, and
// answer/evidence consistency, and discounting hedged language.
type Calibrator struct {
	minEvidenceChunks int
}

// NewCalibrator creates a calibrator. minEvidenceChunks below 1 is treated
// as 1.
func NewCalibrator(minEvidenceChunks int) *Calibrator {
	if minEvidenceChunks < 1 {
		minEvidenceChunks = 1
	}
	return &Calibrator{minEvidenceChunks: minEvidenceChunks}
}

// CalculateConfidence returns a score in [0,1]. Weights: retrieval 0.3,
// coverage 0.3, answer quality 0.2, consistency 0.2, then the uncertainty
// penalty is applied multiplicatively.
func (c *Calibrator) CalculateConfidence(question, answer string, chunks []models.RerankedResult) float64 {
	confidence := 0.3*c.retrievalScore(chunks) +
		0.3*c.coverageScore(question, chunks) +
		0.2*c.answerScore(answer) +
		0.2*c.consistencyScore(chunks, answer)

	confidence *= 1.0 - c.uncertaintyPenalty(answer)
	return utils.Clamp01(confidence)
}

// retrievalScore is the mean reranked score, discounted when fewer than
// minEvidenceChunks chunks were retrieved.
func (c *Calibrator) retrievalScore(chunks []models.RerankedResult) float64 {
	if len(chunks) == 0 {
		return 0
	}
	scores := make([]float64, len(chunks))
	for i, chunk := range chunks {
		scores[i] = chunk.RerankedScore
	}
	chunkPenalty := float64(len(chunks)) / float64(c.minEvidenceChunks)
	if chunkPenalty > 1 {
		chunkPenalty = 1
	}
	return utils.Mean(scores) * chunkPenalty
}

// coverageScore is the fraction of unique question terms found in the
// combined chunk texts.
func (c *Calibrator) coverageScore(question string, chunks []models.RerankedResult) float64 {
	if len(chunks) == 0 {
		return 0
	}
	terms := make(map[string]bool)
	for _, term := range strings.Fields(strings.ToLower(question)) {
		terms[term] = true
	}
	if len(terms) == 0 {
		return 0
	}
	covered := 0
	for term := range terms {
		for _, chunk := range chunks {
			if strings.Contains(strings.ToLower(chunk.Text), term) {
				covered++
				break
			}
		}
	}
	return float64(covered) / float64(len(terms))
}

// answerScore applies fixed quality heuristics to the answer text.
func (c *Calibrator) answerScore(answer string) float64 {
	score := 0.5
	answerLower := strings.ToLower(answer)

	if len(answer) > 50 {
		score += 0.2
	}
	for _, phrase := range []string{"evidence", "based on", "according to"} {
		if strings.Contains(answerLower, phrase) {
			score += 0.15
			break
		}
	}
	if strings.Contains(answerLower, "insufficient evidence") {
		score -= 0.4
	}
	if strings.Contains(answerLower, "don't know") || strings.Contains(answerLower, "cannot answer") {
		score -= 0.3
	}
	return utils.Clamp01(score)
}

// consistencyScore measures overlap between chunk content terms and the
// answer. Matching 30% of the content terms saturates the score.
func (c *Calibrator) consistencyScore(chunks []models.RerankedResult, answer string) float64 {
	if len(chunks) == 0 {
		return 0
	}
	answerLower := strings.ToLower(answer)

	chunkTerms := make(map[string]bool)
	for _, chunk := range chunks {
		for _, term := range strings.Fields(strings.ToLower(chunk.Text)) {
			if len(term) > 3 && !consistencyStopWords[term] {
				chunkTerms[term] = true
			}
		}
	}

	matching := 0
	for term := range chunkTerms {
		if strings.Contains(answerLower, term) {
			matching++
		}
	}

	denom := 0.3 * float64(len(chunkTerms))
	if denom < 1 {
		denom = 1
	}
	consistency := float64(matching) / denom
	if consistency > 1 {
		consistency = 1
	}
	return consistency
}

// uncertaintyPenalty counts hedging phrases in the answer and returns a
// penalty in [0, 0.5].
func (c *Calibrator) uncertaintyPenalty(answer string) float64 {
	answerLower := strings.ToLower(answer)
	count := 0
	for _, phrase := range hedgingPhrases {
		if strings.Contains(answerLower, phrase) {
			count++
		}
	}
	penalty := 0.1 * float64(count)
	if penalty > 0.5 {
		penalty = 0.5
	}
	return penalty
}
