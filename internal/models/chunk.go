// Package models defines core data structures for chunks, retrieval results, and responses.
package models

// Chunk is an atomic unit of retrievable evidence. Chunks are produced during
// ingestion and are immutable once stored.
type Chunk struct {
	ChunkID      string `json:"chunk_id"`
	Text         string `json:"text"`
	SectionTitle string `json:"section_title"`
}

// ChunkMetadata maps metadata keys (filename, doc_type, version, ...) to values.
// It is attached 1:1 to a chunk and is used only for filter predicates and stats.
type ChunkMetadata map[string]string

// Matches reports whether the metadata satisfies every key=value pair in filters.
// A key absent from the metadata, or present with a different value, fails the filter.
func (m ChunkMetadata) Matches(filters map[string]string) bool {
	for key, want := range filters {
		got, ok := m[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// RetrievalResult is a single vector search hit. Score is in [0,1], higher is more similar.
type RetrievalResult struct {
	ChunkID      string        `json:"chunk_id"`
	Text         string        `json:"text"`
	SectionTitle string        `json:"section_title"`
	Metadata     ChunkMetadata `json:"metadata"`
	Score        float64       `json:"score"`
}

// RerankedResult is a retrieval result after the second scoring pass.
// RerankedScore is always >= OriginalScore.
type RerankedResult struct {
	ChunkID         string        `json:"chunk_id"`
	Text            string        `json:"text"`
	SectionTitle    string        `json:"section_title"`
	Metadata        ChunkMetadata `json:"metadata"`
	OriginalScore   float64       `json:"original_score"`
	RerankedScore   float64       `json:"reranked_score"`
	RankExplanation string        `json:"rank_explanation"`
}
