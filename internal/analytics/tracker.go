// Package analytics persists per-question metrics in SQLite and aggregates
// them into system-level dashboards.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// QuestionMetrics records one answered (or refused) question.
type QuestionMetrics struct {
	QuestionID       string  `json:"question_id"`
	Question         string  `json:"question"`
	Timestamp        string  `json:"timestamp"`
	RiskCategory     string  `json:"risk_category"`
	ConfidenceScore  float64 `json:"confidence_score"`
	EvidenceCoverage float64 `json:"evidence_coverage"`
	RetrievedChunks  int     `json:"retrieved_chunks"`
	ProcessingTime   float64 `json:"processing_time,omitempty"`
}

// SystemMetrics aggregates all tracked questions.
type SystemMetrics struct {
	TotalQuestions           int            `json:"total_questions"`
	AvgConfidence            float64        `json:"avg_confidence"`
	AvgEvidenceCoverage      float64        `json:"avg_evidence_coverage"`
	RiskCategoryDistribution map[string]int `json:"risk_category_distribution"`
	ConfidenceDistribution   map[string]int `json:"confidence_distribution"`
	QuestionsPerDay          map[string]int `json:"questions_per_day"`
}

// CoverageStats relates confidence to evidence coverage across all questions.
type CoverageStats struct {
	Correlation                float64 `json:"correlation"`
	HighConfidenceHighCoverage int     `json:"high_confidence_high_coverage"`
	LowConfidenceLowCoverage   int     `json:"low_confidence_low_coverage"`
	TotalQuestions             int     `json:"total_questions"`
}

// Tracker stores question metrics in SQLite.
type Tracker struct {
	db *sql.DB
}

// NewTracker opens or creates the analytics database at dbPath and
// initializes the schema. Parent directories are created if needed.
func NewTracker(dbPath string) (*Tracker, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Tracker{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS question_metrics (
		question_id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		risk_category TEXT NOT NULL,
		confidence_score REAL NOT NULL,
		evidence_coverage REAL NOT NULL,
		retrieved_chunks INTEGER NOT NULL,
		processing_time REAL
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_timestamp ON question_metrics(timestamp);
	CREATE INDEX IF NOT EXISTS idx_metrics_category ON question_metrics(risk_category);
	`
	_, err := db.Exec(schema)
	return err
}

// TrackQuestion records one question's metrics. A zero Timestamp is filled
// with the current time.
func (t *Tracker) TrackQuestion(ctx context.Context, m *QuestionMetrics) error {
	if m.Timestamp == "" {
		m.Timestamp = time.Now().Format(time.RFC3339)
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO question_metrics
		 (question_id, question, timestamp, risk_category, confidence_score,
		  evidence_coverage, retrieved_chunks, processing_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.QuestionID, m.Question, m.Timestamp, m.RiskCategory,
		m.ConfidenceScore, m.EvidenceCoverage, m.RetrievedChunks, m.ProcessingTime,
	)
	if err != nil {
		return fmt.Errorf("track question: %w", err)
	}
	return nil
}

// GetRecentQuestions returns the most recent questions, newest first.
func (t *Tracker) GetRecentQuestions(ctx context.Context, limit int) ([]QuestionMetrics, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT question_id, question, timestamp, risk_category, confidence_score,
		        evidence_coverage, retrieved_chunks, COALESCE(processing_time, 0)
		 FROM question_metrics ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent questions: %w", err)
	}
	defer rows.Close()
	return scanMetrics(rows)
}

// GetQuestionsByCategory returns all questions for a risk category, newest
// first.
func (t *Tracker) GetQuestionsByCategory(ctx context.Context, category string) ([]QuestionMetrics, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT question_id, question, timestamp, risk_category, confidence_score,
		        evidence_coverage, retrieved_chunks, COALESCE(processing_time, 0)
		 FROM question_metrics WHERE risk_category = ?
		 ORDER BY timestamp DESC, rowid DESC`, category)
	if err != nil {
		return nil, fmt.Errorf("query questions by category: %w", err)
	}
	defer rows.Close()
	return scanMetrics(rows)
}

func scanMetrics(rows *sql.Rows) ([]QuestionMetrics, error) {
	var metrics []QuestionMetrics
	for rows.Next() {
		var m QuestionMetrics
		if err := rows.Scan(&m.QuestionID, &m.Question, &m.Timestamp, &m.RiskCategory,
			&m.ConfidenceScore, &m.EvidenceCoverage, &m.RetrievedChunks, &m.ProcessingTime); err != nil {
			return nil, fmt.Errorf("scan question metrics: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// GetSystemMetrics aggregates all tracked questions.
func (t *Tracker) GetSystemMetrics(ctx context.Context) (*SystemMetrics, error) {
	metrics := &SystemMetrics{
		RiskCategoryDistribution: make(map[string]int),
		ConfidenceDistribution:   make(map[string]int),
		QuestionsPerDay:          make(map[string]int),
	}

	rows, err := t.db.QueryContext(ctx,
		`SELECT timestamp, risk_category, confidence_score, evidence_coverage
		 FROM question_metrics`)
	if err != nil {
		return nil, fmt.Errorf("query system metrics: %w", err)
	}
	defer rows.Close()

	var confidenceSum, coverageSum float64
	for rows.Next() {
		var timestamp, category string
		var confidence, coverage float64
		if err := rows.Scan(&timestamp, &category, &confidence, &coverage); err != nil {
			return nil, fmt.Errorf("scan system metrics: %w", err)
		}
		metrics.TotalQuestions++
		confidenceSum += confidence
		coverageSum += coverage
		metrics.RiskCategoryDistribution[category]++
		metrics.ConfidenceDistribution[confidenceBin(confidence)]++
		if len(timestamp) >= 10 {
			metrics.QuestionsPerDay[timestamp[:10]]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if metrics.TotalQuestions > 0 {
		metrics.AvgConfidence = confidenceSum / float64(metrics.TotalQuestions)
		metrics.AvgEvidenceCoverage = coverageSum / float64(metrics.TotalQuestions)
	}
	return metrics, nil
}

// GetCoverageStats computes the confidence/coverage correlation and quadrant
// counts over all questions.
func (t *Tracker) GetCoverageStats(ctx context.Context) (*CoverageStats, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT confidence_score, evidence_coverage FROM question_metrics`)
	if err != nil {
		return nil, fmt.Errorf("query coverage stats: %w", err)
	}
	defer rows.Close()

	var confidences, coverages []float64
	stats := &CoverageStats{}
	for rows.Next() {
		var confidence, coverage float64
		if err := rows.Scan(&confidence, &coverage); err != nil {
			return nil, fmt.Errorf("scan coverage stats: %w", err)
		}
		confidences = append(confidences, confidence)
		coverages = append(coverages, coverage)
		if confidence >= 0.7 && coverage >= 0.7 {
			stats.HighConfidenceHighCoverage++
		}
		if confidence < 0.5 && coverage < 0.5 {
			stats.LowConfidenceLowCoverage++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats.TotalQuestions = len(confidences)
	stats.Correlation = correlation(confidences, coverages)
	return stats, nil
}

// Close closes the database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// confidenceBin maps a score to its dashboard bucket.
func confidenceBin(score float64) string {
	switch {
	case score >= 0.8:
		return "high (0.8-1.0)"
	case score >= 0.6:
		return "medium (0.6-0.8)"
	case score >= 0.4:
		return "low (0.4-0.6)"
	default:
		return "very low (0.0-0.4)"
	}
}

// correlation is the Pearson correlation coefficient; 0 for degenerate input.
func correlation(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	r := cov / math.Sqrt(varX*varY)
	if math.IsNaN(r) {
		return 0
	}
	return r
}
