package ingest

import (
	"strings"
	"testing"

	"github.com/axiomgov/axiom/internal/models"
)

func TestChunkDocument_SmallSectionsStayWhole(t *testing.T) {
	c := NewChunker(512, 50)
	sections := []Section{
		{Title: "Overview", Content: "A short section."},
		{Title: "Empty", Content: "   "},
		{Title: "Details", Content: "Another short section."},
	}
	chunks := c.ChunkDocument(sections, models.ChunkMetadata{"filename": "doc.md"})
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (empty section skipped)", len(chunks))
	}
	if chunks[0].ChunkID != "doc.md_0" || chunks[1].ChunkID != "doc.md_1" {
		t.Errorf("chunk IDs: %s, %s", chunks[0].ChunkID, chunks[1].ChunkID)
	}
	if chunks[0].SectionTitle != "Overview" || chunks[1].SectionTitle != "Details" {
		t.Errorf("section titles: %s, %s", chunks[0].SectionTitle, chunks[1].SectionTitle)
	}
}

func TestChunkDocument_LongSectionSplitsWithOverlap(t *testing.T) {
	c := NewChunker(100, 20)
	sentence := "This sentence is about forty characters. "
	content := strings.TrimSpace(strings.Repeat(sentence, 10))
	chunks := c.ChunkDocument([]Section{{Title: "Long", Content: content}}, models.ChunkMetadata{"filename": "big.md"})
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.Text) > 220 {
			t.Errorf("chunk %d unexpectedly large: %d chars", i, len(chunk.Text))
		}
		if chunk.SectionTitle != "Long" {
			t.Errorf("chunk %d section: got %q", i, chunk.SectionTitle)
		}
	}
	// Sentence-boundary snapping: chunks should end with a period.
	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk.Text, ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, chunk.Text[len(chunk.Text)-20:])
		}
	}
}

func TestChunkDocument_IDsCountAcrossSections(t *testing.T) {
	c := NewChunker(512, 50)
	sections := []Section{
		{Title: "A", Content: "First."},
		{Title: "B", Content: "Second."},
		{Title: "C", Content: "Third."},
	}
	chunks := c.ChunkDocument(sections, models.ChunkMetadata{"filename": "doc.md"})
	want := []string{"doc.md_0", "doc.md_1", "doc.md_2"}
	for i, chunk := range chunks {
		if chunk.ChunkID != want[i] {
			t.Errorf("chunk %d ID: got %s, want %s", i, chunk.ChunkID, want[i])
		}
	}
}

func TestChunkDocument_NoFilename(t *testing.T) {
	c := NewChunker(512, 50)
	chunks := c.ChunkDocument([]Section{{Title: "S", Content: "Text."}}, models.ChunkMetadata{})
	if len(chunks) != 1 || chunks[0].ChunkID != "doc_0" {
		t.Fatalf("got %+v", chunks)
	}
}
