package ingest

import (
	"fmt"
	"strings"

	"github.com/axiomgov/axiom/internal/models"
)

// Chunker splits document sections into overlapping chunks, preferring to
// break at sentence boundaries near the target size.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with a target chunk size and overlap, both in
// characters. Non-positive values fall back to 512 and 50.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 50
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// ChunkDocument produces chunks for every non-empty section. Chunk IDs are
// "{filename}_{n}" with n counting across the whole document.
func (c *Chunker) ChunkDocument(sections []Section, metadata models.ChunkMetadata) []models.Chunk {
	filename := metadata["filename"]
	if filename == "" {
		filename = "doc"
	}

	var chunks []models.Chunk
	counter := 0
	for _, section := range sections {
		content := strings.TrimSpace(section.Content)
		if content == "" {
			continue
		}
		if len(content) <= c.chunkSize {
			chunks = append(chunks, models.Chunk{
				ChunkID:      fmt.Sprintf("%s_%d", filename, counter),
				Text:         content,
				SectionTitle: section.Title,
			})
			counter++
			continue
		}
		for _, text := range c.splitWithOverlap(content) {
			chunks = append(chunks, models.Chunk{
				ChunkID:      fmt.Sprintf("%s_%d", filename, counter),
				Text:         text,
				SectionTitle: section.Title,
			})
			counter++
		}
	}
	return chunks
}

// sentenceDelimiters are tried in order when snapping a chunk boundary.
var sentenceDelimiters = []string{". ", ".\n", "! ", "?\n"}

// splitWithOverlap cuts text into chunkSize windows, snapping each cut to the
// nearest sentence ending within 100 characters when one exists, and backing
// up by overlap characters between windows.
func (c *Chunker) splitWithOverlap(text string) []string {
	var parts []string
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end < len(text) {
			searchStart := end - 100
			if searchStart < start {
				searchStart = start
			}
			searchEnd := end + 100
			if searchEnd > len(text) {
				searchEnd = len(text)
			}
			window := text[searchStart:searchEnd]
			for _, delim := range sentenceDelimiters {
				if idx := strings.LastIndex(window, delim); idx != -1 {
					end = searchStart + idx + len(delim)
					break
				}
			}
		}
		if end > len(text) {
			end = len(text)
		}
		if part := strings.TrimSpace(text[start:end]); part != "" {
			parts = append(parts, part)
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return parts
}
