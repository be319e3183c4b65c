package ml

import (
	"errors"
	"math"
	"testing"
	"time"

	"eduanalytics/internal/common"
	"eduanalytics/internal/models"
)

func engagementHistory(levels ...common.EngagementLevel) []models.AssessmentRecord {
	start := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	history := make([]models.AssessmentRecord, len(levels))
	for i, level := range levels {
		history[i] = models.AssessmentRecord{
			StudentID:         "s1",
			CompletionStatus:  common.StatusCompleted,
			EngagementLevel:   level,
			DifficultyRating:  common.DifficultyAppropriate,
			IndependenceLevel: common.IndependencePartial,
			CreatedAt:         start.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	return history
}

func TestAnalyzeProgressEmpty(t *testing.T) {
	t.Parallel()

	if _, err := AnalyzeProgress(nil); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAnalyzeProgressTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		levels []common.EngagementLevel
		want   string
	}{
		{"single record", []common.EngagementLevel{common.EngagementHigh}, EngagementInsufficientData},
		{"improving", []common.EngagementLevel{common.EngagementLow, common.EngagementMedium, common.EngagementHigh}, EngagementImproving},
		{"declining", []common.EngagementLevel{common.EngagementVeryHigh, common.EngagementMedium, common.EngagementNone}, EngagementDeclining},
		{"stable", []common.EngagementLevel{common.EngagementMedium, common.EngagementMedium, common.EngagementMedium}, EngagementStable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := AnalyzeProgress(engagementHistory(tt.levels...))
			if err != nil {
				t.Fatalf("AnalyzeProgress: %v", err)
			}
			if got.EngagementTrend != tt.want {
				t.Errorf("EngagementTrend = %s, want %s", got.EngagementTrend, tt.want)
			}
		})
	}
}

func TestAnalyzeProgressOrdersByTime(t *testing.T) {
	t.Parallel()

	history := engagementHistory(common.EngagementLow, common.EngagementMedium, common.EngagementHigh, common.EngagementVeryHigh)
	history[0], history[3] = history[3], history[0]

	got, err := AnalyzeProgress(history)
	if err != nil {
		t.Fatalf("AnalyzeProgress: %v", err)
	}
	if math.Abs(got.TrendSlope-1) > 1e-9 {
		t.Errorf("TrendSlope = %v, want 1", got.TrendSlope)
	}
	if got.AvgEngagement != 2.5 {
		t.Errorf("AvgEngagement = %v, want 2.5", got.AvgEngagement)
	}
	if got.CompletionRate != 1 {
		t.Errorf("CompletionRate = %v, want 1", got.CompletionRate)
	}
	if got.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v, want 0.5", got.SuccessRate)
	}
	if got.AvgRecentIndependence != 3 {
		t.Errorf("AvgRecentIndependence = %v, want 3", got.AvgRecentIndependence)
	}
	if len(got.Insights) == 0 || got.Insights[0] != "Excellent activity completion rate" {
		t.Errorf("unexpected insights: %v", got.Insights)
	}
}

func TestAnalyzeProgressStrugglingInsights(t *testing.T) {
	t.Parallel()

	history := strugglingHistory(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	got, err := AnalyzeProgress(history)
	if err != nil {
		t.Fatalf("AnalyzeProgress: %v", err)
	}
	want := []string{
		"Low completion rate, consider adjusting difficulty",
		"Many activities had inadequate difficulty, review the selection",
	}
	if len(got.Insights) != len(want) {
		t.Fatalf("Insights = %v, want %v", got.Insights, want)
	}
	for i := range want {
		if got.Insights[i] != want[i] {
			t.Errorf("Insights[%d] = %q, want %q", i, got.Insights[i], want[i])
		}
	}
}
