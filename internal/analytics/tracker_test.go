package analytics

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tracker, err := NewTracker(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	t.Cleanup(func() { _ = tracker.Close() })
	return tracker
}

func trackN(t *testing.T, tracker *Tracker, category string, confidence, coverage float64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := tracker.TrackQuestion(context.Background(), &QuestionMetrics{
			QuestionID:       uuid.New().String(),
			Question:         fmt.Sprintf("question %d", i),
			Timestamp:        fmt.Sprintf("2024-06-0%dT10:00:00Z", (i%8)+1),
			RiskCategory:     category,
			ConfidenceScore:  confidence,
			EvidenceCoverage: coverage,
			RetrievedChunks:  3,
		})
		if err != nil {
			t.Fatalf("TrackQuestion: %v", err)
		}
	}
}

func TestTrackAndRecent(t *testing.T) {
	tracker := newTestTracker(t)
	trackN(t, tracker, "bias", 0.85, 0.9, 3)

	recent, err := tracker.GetRecentQuestions(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetRecentQuestions: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d questions, want 2", len(recent))
	}
	if recent[0].RiskCategory != "bias" || recent[0].ConfidenceScore != 0.85 {
		t.Errorf("unexpected metrics: %+v", recent[0])
	}
}

func TestByCategory(t *testing.T) {
	tracker := newTestTracker(t)
	trackN(t, tracker, "bias", 0.8, 0.8, 2)
	trackN(t, tracker, "compliance", 0.6, 0.7, 1)

	bias, err := tracker.GetQuestionsByCategory(context.Background(), "bias")
	if err != nil {
		t.Fatalf("GetQuestionsByCategory: %v", err)
	}
	if len(bias) != 2 {
		t.Errorf("bias questions: got %d, want 2", len(bias))
	}
	unknown, err := tracker.GetQuestionsByCategory(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("GetQuestionsByCategory: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown questions: got %d, want 0", len(unknown))
	}
}

func TestSystemMetrics(t *testing.T) {
	tracker := newTestTracker(t)
	trackN(t, tracker, "bias", 0.9, 0.8, 2)
	trackN(t, tracker, "data", 0.5, 0.4, 1)
	trackN(t, tracker, "unknown", 0.0, 0.0, 1)

	metrics, err := tracker.GetSystemMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetSystemMetrics: %v", err)
	}
	if metrics.TotalQuestions != 4 {
		t.Errorf("total: got %d, want 4", metrics.TotalQuestions)
	}
	wantAvg := (0.9 + 0.9 + 0.5 + 0.0) / 4
	if diff := metrics.AvgConfidence - wantAvg; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("avg confidence: got %f, want %f", metrics.AvgConfidence, wantAvg)
	}
	if metrics.RiskCategoryDistribution["bias"] != 2 {
		t.Errorf("category distribution: %v", metrics.RiskCategoryDistribution)
	}
	if metrics.ConfidenceDistribution["high (0.8-1.0)"] != 2 {
		t.Errorf("confidence distribution: %v", metrics.ConfidenceDistribution)
	}
	if metrics.ConfidenceDistribution["very low (0.0-0.4)"] != 1 {
		t.Errorf("confidence distribution: %v", metrics.ConfidenceDistribution)
	}
	if len(metrics.QuestionsPerDay) == 0 {
		t.Error("expected questions per day buckets")
	}
}

func TestSystemMetrics_Empty(t *testing.T) {
	tracker := newTestTracker(t)
	metrics, err := tracker.GetSystemMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetSystemMetrics: %v", err)
	}
	if metrics.TotalQuestions != 0 || metrics.AvgConfidence != 0 {
		t.Errorf("empty metrics: %+v", metrics)
	}
}

func TestCoverageStats(t *testing.T) {
	tracker := newTestTracker(t)
	trackN(t, tracker, "bias", 0.9, 0.9, 2)
	trackN(t, tracker, "data", 0.3, 0.2, 1)

	stats, err := tracker.GetCoverageStats(context.Background())
	if err != nil {
		t.Fatalf("GetCoverageStats: %v", err)
	}
	if stats.TotalQuestions != 3 {
		t.Errorf("total: got %d, want 3", stats.TotalQuestions)
	}
	if stats.HighConfidenceHighCoverage != 2 {
		t.Errorf("high/high: got %d, want 2", stats.HighConfidenceHighCoverage)
	}
	if stats.LowConfidenceLowCoverage != 1 {
		t.Errorf("low/low: got %d, want 1", stats.LowConfidenceLowCoverage)
	}
	if stats.Correlation <= 0 {
		t.Errorf("correlation: got %f, want positive", stats.Correlation)
	}
}

func TestCorrelation_Degenerate(t *testing.T) {
	if got := correlation(nil, nil); got != 0 {
		t.Errorf("empty: got %f", got)
	}
	if got := correlation([]float64{0.5, 0.5}, []float64{0.1, 0.9}); got != 0 {
		t.Errorf("zero variance: got %f", got)
	}
}
