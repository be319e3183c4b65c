package ml

import (
	"errors"
	"sort"

	"eduanalytics/internal/features"
	"eduanalytics/internal/models"
)

// ErrInsufficientData is returned when there is no history to analyze.
var ErrInsufficientData = errors.New("insufficient assessment data")

// Engagement trend labels.
const (
	EngagementImproving        = "improving"
	EngagementStable           = "stable"
	EngagementDeclining        = "declining"
	EngagementInsufficientData = "insufficient_data"
)

const (
	engagementSlopeThreshold = 0.1
	inadequateDifficultyRate = 0.4
	excellentCompletionRate  = 0.8
	poorCompletionRate       = 0.4
)

// ProgressAnalysis summarizes a student's assessment history.
type ProgressAnalysis struct {
	TotalAssessments      int      `json:"total_assessments"`
	CompletionRate        float64  `json:"completion_rate"`
	SuccessRate           float64  `json:"success_rate"`
	AvgEngagement         float64  `json:"avg_engagement"`
	EngagementTrend       string   `json:"engagement_trend"`
	TrendSlope            float64  `json:"trend_slope"`
	AvgRecentIndependence float64  `json:"avg_recent_independence"`
	Insights              []string `json:"insights"`
}

// AnalyzeProgress computes completion, engagement trend and insights. The
// history does not need to be sorted.
func AnalyzeProgress(history []models.AssessmentRecord) (ProgressAnalysis, error) {
	if len(history) == 0 {
		return ProgressAnalysis{}, ErrInsufficientData
	}

	sorted := make([]models.AssessmentRecord, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	n := float64(len(sorted))
	engagement := make([]float64, len(sorted))
	var successful int
	var engagementSum float64
	for i, a := range sorted {
		engagement[i] = a.EngagementLevel.Score()
		engagementSum += engagement[i]
		if a.Successful() {
			successful++
		}
	}

	analysis := ProgressAnalysis{
		TotalAssessments: len(sorted),
		CompletionRate:   features.CompletionFraction(sorted),
		SuccessRate:      float64(successful) / n,
		AvgEngagement:    engagementSum / n,
		EngagementTrend:  EngagementInsufficientData,
	}

	if len(engagement) > 1 {
		analysis.TrendSlope = slope(engagement)
		switch {
		case analysis.TrendSlope > engagementSlopeThreshold:
			analysis.EngagementTrend = EngagementImproving
		case analysis.TrendSlope < -engagementSlopeThreshold:
			analysis.EngagementTrend = EngagementDeclining
		default:
			analysis.EngagementTrend = EngagementStable
		}
	}

	recent := lastN(sorted, features.RecentWindow)
	var independence float64
	for _, a := range recent {
		independence += a.IndependenceLevel.Score()
	}
	analysis.AvgRecentIndependence = independence / float64(len(recent))

	analysis.Insights = progressInsights(sorted)
	return analysis, nil
}

// slope fits y = a + b*x over x = 0..n-1 by least squares and returns b.
func slope(y []float64) float64 {
	n := float64(len(y))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func lastN(sorted []models.AssessmentRecord, n int) []models.AssessmentRecord {
	if len(sorted) > n {
		return sorted[len(sorted)-n:]
	}
	return sorted
}

func progressInsights(sorted []models.AssessmentRecord) []string {
	var insights []string

	completion := features.CompletionFraction(sorted)
	if completion > excellentCompletionRate {
		insights = append(insights, "Excellent activity completion rate")
	} else if completion < poorCompletionRate {
		insights = append(insights, "Low completion rate, consider adjusting difficulty")
	}

	inadequate := 0
	for _, a := range sorted {
		if a.DifficultyRating.IsInadequate() {
			inadequate++
		}
	}
	if float64(inadequate) > float64(len(sorted))*inadequateDifficultyRate {
		insights = append(insights, "Many activities had inadequate difficulty, review the selection")
	}

	recent := lastN(sorted, features.RecentWindow)
	recentCompleted := 0
	for _, a := range recent {
		if a.Completed() {
			recentCompleted++
		}
	}
	switch recentCompleted {
	case len(recent):
		insights = append(insights, "All recent activities were completed")
	case 0:
		insights = append(insights, "No recent activity was completed, additional support needed")
	}

	if len(insights) == 0 {
		return []string{"Progress within expectations"}
	}
	return insights
}
