package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/axiomgov/axiom/internal/models"
)

// classificationKeywords drives doc_type classification by keyword frequency.
var classificationKeywords = map[string][]string{
	"risk":           {"risk", "threat", "vulnerability", "exposure", "mitigation"},
	"bias":           {"bias", "fairness", "discrimination", "disparity", "equity", "protected"},
	"explainability": {"explainability", "interpretability", "shap", "lime", "feature importance"},
	"validation":     {"validation", "testing", "performance", "accuracy", "metrics", "evaluation"},
	"assumptions":    {"assumption", "limitation", "constraint", "dependency", "prerequisite"},
}

// docTypeOrder fixes the tie-break order for classification.
var docTypeOrder = []string{"risk", "bias", "explainability", "validation", "assumptions"}

var (
	modelNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Model\s*Name\s*[:：]\s*([^\n]+)`),
		regexp.MustCompile(`(?i)Model\s*[:：]\s*([^\n]+)`),
		regexp.MustCompile(`(?i)Algorithm\s*[:：]\s*([^\n]+)`),
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Version\s*[:：]\s*([^\n]+)`),
		regexp.MustCompile(`(?i)v(\d+\.\d+\.?\d*)`),
		regexp.MustCompile(`(?i)Version\s+(\d+\.\d+\.?\d*)`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Date\s*[:：]\s*(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`(?i)Date\s*[:：]\s*([^\n]+)`),
	}
)

// Section is a titled span of a document.
type Section struct {
	Title   string
	Content string
}

// ProcessedDocument is the output of processing one file.
type ProcessedDocument struct {
	Content  string
	Metadata models.ChunkMetadata
	Sections []Section
}

// Processor extracts text from files and derives sections and metadata.
type Processor struct {
	extractor *Extractor
}

// NewProcessor returns a processor using the given extractor.
func NewProcessor(extractor *Extractor) *Processor {
	return &Processor{extractor: extractor}
}

// ProcessFile extracts and annotates one document.
func (p *Processor) ProcessFile(path string) (*ProcessedDocument, error) {
	content, err := p.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	metadata := models.ChunkMetadata{
		"filename":     filepath.Base(path),
		"doc_type":     ClassifyDocument(content),
		"file_size":    fmt.Sprintf("%d", info.Size()),
		"processed_at": time.Now().Format(time.RFC3339),
	}
	if name := firstMatch(modelNamePatterns, content); name != "" {
		metadata["model_name"] = name
	}
	if version := firstMatch(versionPatterns, content); version != "" {
		metadata["version"] = version
	}
	if date := firstMatch(datePatterns, content); date != "" {
		metadata["date"] = date
	}

	return &ProcessedDocument{
		Content:  content,
		Metadata: metadata,
		Sections: SplitSections(content),
	}, nil
}

// ClassifyDocument returns the doc_type with the highest keyword frequency,
// defaulting to "risk" when nothing matches.
func ClassifyDocument(content string) string {
	contentLower := strings.ToLower(content)
	best := "risk"
	bestScore := 0
	for _, docType := range docTypeOrder {
		score := 0
		for _, keyword := range classificationKeywords[docType] {
			score += strings.Count(contentLower, keyword)
		}
		if score > bestScore {
			best = docType
			bestScore = score
		}
	}
	return best
}

// sectionHeader matches markdown headers (up to level 3) and numbered
// headings that start with a capital letter.
var sectionHeader = regexp.MustCompile(`^#{1,3}\s+(.+?)\s*$|^(\d+\.?\s+[A-Z].+?)\s*$`)

// SplitSections splits content on headers. Content before the first header is
// dropped with the header-less remainder; a document without any header
// becomes one "Document" section.
func SplitSections(content string) []Section {
	var sections []Section
	currentTitle := ""
	var currentContent []string

	for _, line := range strings.Split(content, "\n") {
		match := sectionHeader.FindStringSubmatch(line)
		if match != nil {
			if currentTitle != "" {
				sections = append(sections, Section{
					Title:   currentTitle,
					Content: strings.TrimSpace(strings.Join(currentContent, "\n")),
				})
			}
			currentTitle = match[1]
			if currentTitle == "" {
				currentTitle = match[2]
			}
			currentContent = nil
			continue
		}
		currentContent = append(currentContent, line)
	}
	if currentTitle != "" {
		sections = append(sections, Section{
			Title:   currentTitle,
			Content: strings.TrimSpace(strings.Join(currentContent, "\n")),
		})
	}

	if len(sections) == 0 {
		sections = append(sections, Section{Title: "Document", Content: content})
	}
	return sections
}

func firstMatch(patterns []*regexp.Regexp, content string) string {
	for _, pattern := range patterns {
		if match := pattern.FindStringSubmatch(content); match != nil {
			for _, group := range match[1:] {
				if group != "" {
					return strings.TrimSpace(group)
				}
			}
		}
	}
	return ""
}
