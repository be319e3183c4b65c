package ml

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"eduanalytics/internal/features"
	"eduanalytics/internal/models"
)

// Confidence buckets for success predictions.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Recommendation thresholds.
const (
	lowSuccessBelow      = 0.4
	highSuccessAbove     = 0.7
	confidentAbove       = 0.7
	confidentBelow       = 0.3
	longActivityMinutes  = 45
	shortAttentionBelow  = 3
	hardActivityAbove    = 6
	easyActivityBelow    = 4
	independentAbove     = 3
	lowEngagementBelow   = 2
	splitSessionsMessage = "Consider splitting the activity into shorter sessions"
)

// SuccessPrediction is the estimated likelihood of completing an activity.
type SuccessPrediction struct {
	Probability     float64  `json:"success_probability"`
	Confidence      string   `json:"confidence"`
	Recommendations []string `json:"recommendations"`
	Method          string   `json:"method"`
}

// DefaultSuccessPrediction is the low-confidence value returned alongside an
// error from PredictSuccess.
func DefaultSuccessPrediction() SuccessPrediction {
	return SuccessPrediction{
		Probability:     0.5,
		Confidence:      ConfidenceLow,
		Recommendations: []string{"Monitor engagement during the activity"},
		Method:          MethodDefault,
	}
}

// ModelSuccess queries a loaded success artifact for P(success).
type ModelSuccess struct {
	artifact *Artifact
	positive int // index of class 1 in PredictProba output
}

// NewModelSuccess wraps a loaded artifact.
func NewModelSuccess(artifact *Artifact) (*ModelSuccess, error) {
	if artifact == nil || artifact.Model == nil {
		return nil, fmt.Errorf("%w: nil classifier", ErrInvalidArtifact)
	}
	if len(artifact.Model.Classes) != 2 {
		return nil, fmt.Errorf("%w: success predictor must be binary, got %d classes", ErrInvalidArtifact, len(artifact.Model.Classes))
	}
	positive := artifact.Model.ClassIndex(1)
	if positive < 0 {
		return nil, fmt.Errorf("%w: success predictor has no class 1", ErrInvalidArtifact)
	}
	return &ModelSuccess{artifact: artifact, positive: positive}, nil
}

func (*ModelSuccess) Method() string { return MethodModel }

// Estimate implements SuccessStrategy.
func (m *ModelSuccess) Estimate(student, activity features.Vector) (float64, error) {
	combined := student.Merge(activity)

	names := m.artifact.FeatureNames()
	if names == nil {
		names = combined.Names()
	}

	x, err := m.artifact.Prepare(combined.Ordered(names))
	if err != nil {
		return 0, err
	}
	probs, err := m.artifact.Model.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return probs[m.positive], nil
}

// SuccessEstimator predicts activity success with a fixed strategy.
type SuccessEstimator struct {
	strategy SuccessStrategy
	metrics  MetricsInterface
}

// NewSuccessEstimator creates an estimator; a nil strategy means rule-based.
func NewSuccessEstimator(strategy SuccessStrategy, metrics MetricsInterface) *SuccessEstimator {
	if strategy == nil {
		strategy = NewRuleBasedSuccess()
	}
	return &SuccessEstimator{strategy: strategy, metrics: metricsOrNoop(metrics)}
}

// Method returns the tag of the active strategy.
func (e *SuccessEstimator) Method() string {
	return e.strategy.Method()
}

// PredictSuccess estimates the probability that the student completes the
// activity and derives recommendations. Unlike risk prediction, errors are
// returned to the caller; the accompanying value is DefaultSuccessPrediction.
func (e *SuccessEstimator) PredictSuccess(profile models.StudentProfile, activity models.ActivityDescriptor, history []models.AssessmentRecord) (SuccessPrediction, error) {
	start := time.Now()
	defer func() {
		e.metrics.MLLatencyObserve(ModelKindSuccess, time.Since(start).Seconds())
	}()

	studentFeatures := features.ExtractStudentFeatures(profile, history)
	activityFeatures := features.ExtractActivityFeatures(activity)

	p, err := e.strategy.Estimate(studentFeatures, activityFeatures)
	if err != nil {
		e.metrics.MLFailuresInc(ModelKindSuccess)
		return DefaultSuccessPrediction(), fmt.Errorf("estimate success: %w", err)
	}

	method := e.strategy.Method()
	e.metrics.MLPredictionsInc(ModelKindSuccess, method)
	if method == MethodRuleBased {
		e.metrics.MLFallbackUseInc(ModelKindSuccess)
	}
	e.metrics.MLConfidenceObserve(ModelKindSuccess, p)

	result := SuccessPrediction{
		Probability:     p,
		Confidence:      ConfidenceBucket(p),
		Recommendations: Recommendations(studentFeatures.Merge(activityFeatures), p),
		Method:          method,
	}

	log.Debug().Float64("success_probability", p).Str("method", method).Msg("Activity success prediction")
	return result, nil
}

// ConfidenceBucket rates how far p sits from the uncertain midpoint.
func ConfidenceBucket(p float64) string {
	if p > confidentAbove || p < confidentBelow {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

// Recommendations derives suggestions from the combined feature vector and
// the estimated probability.
func Recommendations(v features.Vector, p float64) []string {
	var recs []string

	switch {
	case p < lowSuccessBelow:
		recs = append(recs, "Activity may be challenging, consider simplifying it")
		if v.Get(features.ActivityDifficulty, 5) > hardActivityAbove {
			recs = append(recs, "Reduce the activity difficulty level")
		}
		if v.Get(features.HasVisualSupports, 0) == 0 {
			recs = append(recs, "Add visual supports to aid understanding")
		}
		if v.Get(features.HasAdaptations, 0) == 0 {
			recs = append(recs, "Include adaptations based on the student's profile")
		}
		if v.Get(features.AvgEngagement, 2) < lowEngagementBelow {
			recs = append(recs, "Incorporate the student's special interests to raise engagement")
		}
	case p > highSuccessAbove:
		recs = append(recs, "Activity is well aligned with the student's profile")
		if v.Get(features.AvgIndependence, 2) > independentAbove && v.Get(features.ActivityDifficulty, 5) < easyActivityBelow {
			recs = append(recs, "Consider increasing complexity for an appropriate challenge")
		}
	default:
		recs = append(recs, "Activity is adequate, monitor progress")
	}

	if v.Get(features.DurationMinutes, 30) > longActivityMinutes && v.Get(features.AttentionSpan, 5) < shortAttentionBelow {
		recs = append(recs, splitSessionsMessage)
	}

	return recs
}
