package ml

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduanalytics/internal/common"
	"eduanalytics/internal/features"
	"eduanalytics/internal/models"
)

type failingSuccess struct{}

func (failingSuccess) Method() string { return MethodModel }

func (failingSuccess) Estimate(features.Vector, features.Vector) (float64, error) {
	return 0, errors.New("boom")
}

func TestConfidenceBucket(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ConfidenceHigh, ConfidenceBucket(0.71))
	assert.Equal(t, ConfidenceHigh, ConfidenceBucket(0.29))
	assert.Equal(t, ConfidenceMedium, ConfidenceBucket(0.7))
	assert.Equal(t, ConfidenceMedium, ConfidenceBucket(0.3))
	assert.Equal(t, ConfidenceMedium, ConfidenceBucket(0.5))
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	t.Run("low probability", func(t *testing.T) {
		v := features.Vector{
			features.ActivityDifficulty: 8,
			features.AvgEngagement:      1,
			features.DurationMinutes:    60,
			features.AttentionSpan:      2,
		}
		recs := Recommendations(v, 0.2)
		assert.Contains(t, recs, "Activity may be challenging, consider simplifying it")
		assert.Contains(t, recs, "Reduce the activity difficulty level")
		assert.Contains(t, recs, "Add visual supports to aid understanding")
		assert.Contains(t, recs, "Include adaptations based on the student's profile")
		assert.Contains(t, recs, "Incorporate the student's special interests to raise engagement")
		assert.Equal(t, splitSessionsMessage, recs[len(recs)-1])
	})

	t.Run("high probability", func(t *testing.T) {
		v := features.Vector{features.AvgIndependence: 3.5, features.ActivityDifficulty: 2}
		recs := Recommendations(v, 0.9)
		assert.Equal(t, []string{
			"Activity is well aligned with the student's profile",
			"Consider increasing complexity for an appropriate challenge",
		}, recs)
	})

	t.Run("medium probability", func(t *testing.T) {
		recs := Recommendations(features.Vector{}, 0.5)
		assert.Equal(t, []string{"Activity is adequate, monitor progress"}, recs)
	})
}

func TestPredictSuccessRuleBased(t *testing.T) {
	t.Parallel()

	metrics := &MockMetrics{}
	estimator := NewSuccessEstimator(nil, metrics)

	profile := models.StudentProfile{ID: "s1", Age: 8, SupportLevel: common.SupportLevel1}
	activity := models.ActivityDescriptor{
		Difficulty:        5,
		DurationMinutes:   20,
		ActivityType:      common.ActivityCognitive,
		HasAdaptations:    true,
		HasVisualSupports: true,
	}

	got, err := estimator.PredictSuccess(profile, activity, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, got.Probability, 1e-9)
	assert.Equal(t, ConfidenceMedium, got.Confidence)
	assert.Equal(t, MethodRuleBased, got.Method)
	assert.NotEmpty(t, got.Recommendations)
	assert.Equal(t, 1, metrics.count(ModelKindSuccess, MethodRuleBased))
}

func TestPredictSuccessPropagatesErrors(t *testing.T) {
	t.Parallel()

	metrics := &MockMetrics{}
	estimator := NewSuccessEstimator(failingSuccess{}, metrics)

	got, err := estimator.PredictSuccess(models.StudentProfile{}, models.ActivityDescriptor{}, nil)
	require.Error(t, err)
	assert.Equal(t, DefaultSuccessPrediction(), got)
	assert.Equal(t, 1, metrics.failures)
}
