package models

import "fmt"

// Citation points at an evidence source supporting an answer.
// Citations are deduplicated by (Document, Section).
type Citation struct {
	Document       string  `json:"document"`
	Section        string  `json:"section"`
	ChunkID        string  `json:"chunk_id,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

// AnswerResponse is the structured output of the QA pipeline.
type AnswerResponse struct {
	Answer           string       `json:"answer"`
	RiskCategory     RiskCategory `json:"risk_category"`
	ConfidenceScore  float64      `json:"confidence_score"`
	Citations        []Citation   `json:"citations"`
	Limitations      string       `json:"limitations,omitempty"`
	EvidenceCoverage float64      `json:"evidence_coverage"`
	// Refused is true when the pipeline declined to answer for lack of evidence.
	// It distinguishes the designed refusal payload from a normal low-confidence answer.
	Refused bool `json:"refused,omitempty"`
}

// QuestionRequest is a question with optional retrieval filters.
type QuestionRequest struct {
	Question string            `json:"question"`
	Filters  map[string]string `json:"filters,omitempty"`
	TopK     int               `json:"top_k,omitempty"`
}

// Validate ensures the request has valid fields and sets defaults.
// Returns an error if the question is empty; otherwise normalizes top_k.
func (q *QuestionRequest) Validate(defaultTopK int) error {
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if q.TopK > 50 {
		q.TopK = 50
	}
	return nil
}

// QuestionResponse wraps an answer with request-level bookkeeping.
type QuestionResponse struct {
	Question        string          `json:"question"`
	Response        *AnswerResponse `json:"response"`
	RetrievedChunks int             `json:"retrieved_chunks"`
	ProcessingTime  float64         `json:"processing_time,omitempty"`
}
