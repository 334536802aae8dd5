package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/axiomgov/axiom/internal/config"
	"github.com/axiomgov/axiom/internal/embedding"
	"github.com/axiomgov/axiom/internal/generation"
	"github.com/axiomgov/axiom/internal/models"
	"github.com/axiomgov/axiom/internal/rerank"
	"github.com/axiomgov/axiom/internal/risk"
	"github.com/axiomgov/axiom/internal/vector"
	"github.com/axiomgov/axiom/pkg/utils"
)

// pipelineState tracks where a question is in the answering pipeline.
// A question either reaches stateCompleted or terminates at stateRefused;
// collaborator failures abort the request with an error instead.
type pipelineState string

const (
	stateReceived   pipelineState = "received"
	stateEmbedded   pipelineState = "embedded"
	stateRetrieved  pipelineState = "retrieved"
	stateReranked   pipelineState = "reranked"
	stateRefused    pipelineState = "refused"
	stateGenerated  pipelineState = "generated"
	stateClassified pipelineState = "classified"
	stateCalibrated pipelineState = "calibrated"
	stateCited      pipelineState = "cited"
	stateCompleted  pipelineState = "completed"
)

var limitationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)limitations?:\s*(.+?)(?:\n\n|\z)`),
	regexp.MustCompile(`(?is)(?:however|note that|it should be noted)\s+(.+?)(?:\.|\z)`),
}

// Engine answers questions over the indexed evidence. A request moves through
// embed, retrieve, rerank, and a sufficiency gate; with enough evidence it is
// generated, classified, calibrated, and cited, otherwise it terminates in a
// refusal. Collaborator calls are a request-scoped unit of work: any failure
// aborts the request with an error, never a degraded answer.
type Engine struct {
	store      *vector.Store
	embedder   embedding.Embedder
	reranker   *rerank.Reranker
	classifier *risk.Classifier
	calibrator *risk.Calibrator
	generator  generation.Generator
	config     *config.RetrievalConfig
	logger     *zap.Logger
}

// NewEngine creates a QA engine with the given dependencies.
func NewEngine(
	store *vector.Store,
	embedder embedding.Embedder,
	reranker *rerank.Reranker,
	classifier *risk.Classifier,
	calibrator *risk.Calibrator,
	generator generation.Generator,
	cfg *config.RetrievalConfig,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:      store,
		embedder:   embedder,
		reranker:   reranker,
		classifier: classifier,
		calibrator: calibrator,
		generator:  generator,
		config:     cfg,
		logger:     logger,
	}
}

// AnswerQuestion runs the full pipeline for one question.
func (e *Engine) AnswerQuestion(ctx context.Context, req *models.QuestionRequest) (*models.QuestionResponse, error) {
	startTime := time.Now()
	if err := req.Validate(e.config.TopK); err != nil {
		return nil, err
	}
	state := stateReceived
	e.logState(req.Question, state)

	queryEmbedding, err := e.embedder.Embed(ctx, req.Question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	state = stateEmbedded
	e.logState(req.Question, state)

	// Over-fetch so the reranker has candidates to demote.
	candidates, err := e.store.Search(ctx, queryEmbedding, req.TopK*2, req.Filters)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	state = stateRetrieved
	e.logState(req.Question, state)

	reranked := e.reranker.Rerank(req.Question, candidates, req.TopK)
	state = stateReranked
	e.logState(req.Question, state)

	if len(reranked) < e.config.MinEvidenceChunks {
		state = stateRefused
		e.logState(req.Question, state)
		e.logger.Info("refusing question for insufficient evidence",
			zap.Int("chunks", len(reranked)),
			zap.Int("min_required", e.config.MinEvidenceChunks))
		return e.refusalResponse(req.Question, reranked, startTime), nil
	}

	prompt := FormatQAPrompt(req.Question, FormatContext(reranked))
	prompt = truncatePrompt(prompt, e.config.MaxContextLength)
	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	state = stateGenerated
	e.logState(req.Question, state)

	category, err := e.classifier.Classify(ctx, req.Question, answer)
	if err != nil {
		return nil, fmt.Errorf("classify risk: %w", err)
	}
	state = stateClassified
	e.logState(req.Question, state)

	confidence := e.calibrator.CalculateConfidence(req.Question, answer, reranked)
	state = stateCalibrated
	e.logState(req.Question, state)

	citations := extractCitations(reranked)
	state = stateCited
	e.logState(req.Question, state)

	response := &models.AnswerResponse{
		Answer:           answer,
		RiskCategory:     category,
		ConfidenceScore:  confidence,
		Citations:        citations,
		Limitations:      extractLimitations(answer),
		EvidenceCoverage: evidenceCoverage(reranked),
	}
	state = stateCompleted
	e.logState(req.Question, state)

	return &models.QuestionResponse{
		Question:        req.Question,
		Response:        response,
		RetrievedChunks: len(reranked),
		ProcessingTime:  time.Since(startTime).Seconds(),
	}, nil
}

func (e *Engine) logState(question string, state pipelineState) {
	e.logger.Debug("pipeline state",
		zap.String("state", string(state)),
		zap.String("question", utils.Truncate(question, 80)))
}

// refusalResponse builds the terminal refusal payload: unknown category, zero
// confidence, zero coverage, fixed refusal text.
func (e *Engine) refusalResponse(question string, reranked []models.RerankedResult, startTime time.Time) *models.QuestionResponse {
	return &models.QuestionResponse{
		Question: question,
		Response: &models.AnswerResponse{
			Answer:           FormatRefusal(question),
			RiskCategory:     models.RiskUnknown,
			ConfidenceScore:  0,
			Citations:        []models.Citation{},
			Limitations:      refusalLimitations,
			EvidenceCoverage: 0,
			Refused:          true,
		},
		RetrievedChunks: len(reranked),
		ProcessingTime:  time.Since(startTime).Seconds(),
	}
}

// truncatePrompt cuts prompt to at most maxLen bytes without splitting a
// multi-byte rune at the boundary. maxLen <= 0 means no limit.
func truncatePrompt(prompt string, maxLen int) string {
	if maxLen <= 0 || len(prompt) <= maxLen {
		return prompt
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(prompt[cut]) {
		cut--
	}
	return prompt[:cut]
}

// extractCitations deduplicates evidence sources by (document, section) in
// first-seen order.
func extractCitations(reranked []models.RerankedResult) []models.Citation {
	citations := make([]models.Citation, 0, len(reranked))
	seen := make(map[string]bool)
	for _, res := range reranked {
		filename := res.Metadata["filename"]
		if filename == "" {
			filename = "Unknown"
		}
		key := filename + ":" + res.SectionTitle
		if seen[key] {
			continue
		}
		seen[key] = true
		citations = append(citations, models.Citation{
			Document:       filename,
			Section:        res.SectionTitle,
			ChunkID:        res.ChunkID,
			RelevanceScore: res.RerankedScore,
		})
	}
	return citations
}

// extractLimitations pulls a limitations statement out of the answer text,
// returning "" when none is found.
func extractLimitations(answer string) string {
	for _, pattern := range limitationPatterns {
		if match := pattern.FindStringSubmatch(answer); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}

// evidenceCoverage is the mean reranked score over the final chunks, capped
// at 1.
func evidenceCoverage(reranked []models.RerankedResult) float64 {
	if len(reranked) == 0 {
		return 0
	}
	sum := 0.0
	for _, res := range reranked {
		sum += res.RerankedScore
	}
	coverage := sum / float64(len(reranked))
	if coverage > 1 {
		coverage = 1
	}
	return coverage
}
