// Package features turns student profiles, assessment histories and activity
// descriptors into flat numeric feature vectors.
//
// Extraction is pure: identical inputs always yield identical vectors.
package features

import (
	"sort"

	"eduanalytics/internal/common"
	"eduanalytics/internal/models"
)

// Feature names emitted by ExtractStudentFeatures.
const (
	Age                  = "age"
	SupportLevel         = "support_level"
	InterestCount        = "interest_count"
	CompletionRate       = "completion_rate"
	AvgEngagement        = "avg_engagement"
	AvgDifficultyRating  = "avg_difficulty_rating"
	AvgIndependence      = "avg_independence"
	SuccessRate          = "success_rate"
	RecentCompletionRate = "recent_completion_rate"
	AttentionSpan        = common.AttentionSpan
)

// RecentWindow is how many of the newest assessments feed recent_completion_rate.
const RecentWindow = 5

// Defaults used when the student has no assessment history.
var historyDefaults = map[string]float64{
	CompletionRate:       0.5,
	AvgEngagement:        2.0,
	AvgDifficultyRating:  0.0,
	AvgIndependence:      2.0,
	SuccessRate:          0.5,
	RecentCompletionRate: 0.5,
}

// DomainFeature returns the feature name for a learning domain.
func DomainFeature(domain string) string {
	return "learning_" + domain
}

// ExtractStudentFeatures builds the student feature vector. history may be nil
// and does not need to be sorted.
func ExtractStudentFeatures(profile models.StudentProfile, history []models.AssessmentRecord) Vector {
	v := make(Vector, 24)

	v[Age] = float64(profile.Age)
	v[SupportLevel] = profile.SupportLevel.Ordinal()
	v[InterestCount] = float64(len(profile.Interests))

	extractLearningProfile(v, profile.LearningProfile)

	if len(history) == 0 {
		for k, val := range historyDefaults {
			v[k] = val
		}
		return v
	}
	extractHistory(v, history)
	return v
}

func extractLearningProfile(v Vector, lp map[string]float64) {
	if lp == nil {
		for _, d := range common.LearningDomains {
			v[DomainFeature(d)] = common.NeutralProfileScore
		}
		for _, t := range common.ProfileTraits {
			v[t] = common.NeutralProfileScore
		}
		return
	}

	// a filled-in profile with a missing domain scores 0, a missing trait stays neutral
	for _, d := range common.LearningDomains {
		v[DomainFeature(d)] = lp[d]
	}
	for _, t := range common.ProfileTraits {
		if val, ok := lp[t]; ok {
			v[t] = val
		} else {
			v[t] = common.NeutralProfileScore
		}
	}
}

func extractHistory(v Vector, history []models.AssessmentRecord) {
	n := float64(len(history))

	var completed, successful int
	var engagement, difficulty, independence float64
	for _, a := range history {
		if a.Completed() {
			completed++
		}
		if a.Successful() {
			successful++
		}
		engagement += a.EngagementLevel.Score()
		difficulty += a.DifficultyRating.Score()
		independence += a.IndependenceLevel.Score()
	}

	v[CompletionRate] = float64(completed) / n
	v[AvgEngagement] = engagement / n
	v[AvgDifficultyRating] = difficulty / n
	v[AvgIndependence] = independence / n
	v[SuccessRate] = float64(successful) / n
	v[RecentCompletionRate] = CompletionFraction(MostRecent(history, RecentWindow))
}

// MostRecent returns up to n records ordered newest first. The input slice is
// left untouched.
func MostRecent(history []models.AssessmentRecord, n int) []models.AssessmentRecord {
	sorted := make([]models.AssessmentRecord, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CompletionFraction is the share of completed records, 0 for an empty slice.
func CompletionFraction(records []models.AssessmentRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	completed := 0
	for _, a := range records {
		if a.Completed() {
			completed++
		}
	}
	return float64(completed) / float64(len(records))
}
