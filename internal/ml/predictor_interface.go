// Package ml provides the behavioral risk classifier and the activity success
// estimator.
//
// Both components run one of two interchangeable strategies: a model-backed
// strategy that scores features with a versioned artifact loaded from disk,
// and a closed-form rule-based strategy used when no artifact is available.
// The strategy is chosen once, when the Engine is loaded, and never changes
// afterwards.
package ml

import "eduanalytics/internal/features"

// Model kinds, also the artifact directory names under the model path.
const (
	ModelKindRisk    = "behavioral_classifier"
	ModelKindSuccess = "success_predictor"
)

// Method tags reported on predictions.
const (
	MethodModel     = "ml_model"
	MethodRuleBased = "rule_based"
	MethodDefault   = "default"
)

// RiskStrategy classifies a student feature vector into a risk category.
type RiskStrategy interface {
	// Method returns the tag attached to every prediction of this strategy.
	Method() string

	// Classify scores the vector. Implementations must not retain or modify it.
	Classify(v features.Vector) (RiskPrediction, error)
}

// SuccessStrategy estimates the probability that a student completes an activity.
type SuccessStrategy interface {
	Method() string

	// Estimate returns a probability in [0,1] from separate student and
	// activity vectors.
	Estimate(student, activity features.Vector) (float64, error)
}

// MetricsInterface defines metrics methods needed by the predictors
type MetricsInterface interface {
	MLPredictionsInc(model, method string)
	MLFailuresInc(model string)
	MLFallbackUseInc(model string)
	MLLatencyObserve(model string, seconds float64)
	MLConfidenceObserve(model string, v float64)
	MLModelAgeSet(model string, seconds float64)
}

type noopMetrics struct{}

func (noopMetrics) MLPredictionsInc(string, string)     {}
func (noopMetrics) MLFailuresInc(string)                {}
func (noopMetrics) MLFallbackUseInc(string)             {}
func (noopMetrics) MLLatencyObserve(string, float64)    {}
func (noopMetrics) MLConfidenceObserve(string, float64) {}
func (noopMetrics) MLModelAgeSet(string, float64)       {}

func metricsOrNoop(m MetricsInterface) MetricsInterface {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
