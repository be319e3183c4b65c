package ml

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"eduanalytics/internal/features"
	"eduanalytics/internal/models"
)

// RiskCategory is one of the ordered behavioral risk levels.
type RiskCategory string

const (
	RiskLow      RiskCategory = "baixo"
	RiskMedium   RiskCategory = "medio"
	RiskHigh     RiskCategory = "alto"
	RiskVeryHigh RiskCategory = "muito_alto"
)

// RiskCategories in ascending order; also the default class labels of a risk model.
var RiskCategories = []RiskCategory{RiskLow, RiskMedium, RiskHigh, RiskVeryHigh}

// RiskPrediction is the result of a risk classification.
type RiskPrediction struct {
	Category   RiskCategory `json:"risk_level"`
	Confidence float64      `json:"confidence"`
	// Probabilities is only set on the model path.
	Probabilities map[RiskCategory]float64 `json:"probabilities,omitempty"`
	// RiskScore is only set on the rule-based path.
	RiskScore *float64 `json:"risk_score,omitempty"`
	Method    string   `json:"method"`
}

// DefaultRiskPrediction is returned when classification fails internally.
func DefaultRiskPrediction() RiskPrediction {
	return RiskPrediction{Category: RiskMedium, Confidence: 0.5, Method: MethodDefault}
}

// ModelRisk classifies with a loaded artifact.
type ModelRisk struct {
	artifact *Artifact
	labels   []RiskCategory
}

// NewModelRisk wraps a loaded artifact. Labels come from the metadata when
// present, otherwise the standard category order is used.
func NewModelRisk(artifact *Artifact) (*ModelRisk, error) {
	if artifact == nil || artifact.Model == nil {
		return nil, fmt.Errorf("%w: nil classifier", ErrInvalidArtifact)
	}

	labels := RiskCategories
	if artifact.Metadata != nil && len(artifact.Metadata.Labels) > 0 {
		labels = make([]RiskCategory, len(artifact.Metadata.Labels))
		for i, l := range artifact.Metadata.Labels {
			labels[i] = RiskCategory(l)
		}
	}
	for _, class := range artifact.Model.Classes {
		if class < 0 || class >= len(labels) {
			return nil, fmt.Errorf("%w: class %d has no label among %d", ErrInvalidArtifact, class, len(labels))
		}
	}

	return &ModelRisk{artifact: artifact, labels: labels}, nil
}

func (*ModelRisk) Method() string { return MethodModel }

// Classify implements RiskStrategy.
func (m *ModelRisk) Classify(v features.Vector) (RiskPrediction, error) {
	names := m.artifact.FeatureNames()
	if names == nil {
		names = v.Names()
	}

	x, err := m.artifact.Prepare(v.Ordered(names))
	if err != nil {
		return RiskPrediction{}, err
	}

	class, err := m.artifact.Model.Predict(x)
	if err != nil {
		return RiskPrediction{}, err
	}
	probs, err := m.artifact.Model.PredictProba(x)
	if err != nil {
		return RiskPrediction{}, err
	}
	if class < 0 || class >= len(m.labels) {
		return RiskPrediction{}, fmt.Errorf("predicted class %d has no label", class)
	}

	// probs follow the classifier's class order, not label order.
	dist := make(map[RiskCategory]float64, len(probs))
	for i, p := range probs {
		dist[m.labels[m.artifact.Model.Classes[i]]] = p
	}

	return RiskPrediction{
		Category:      m.labels[class],
		Confidence:    probs[argmax(probs)],
		Probabilities: dist,
		Method:        MethodModel,
	}, nil
}

// RiskClassifier predicts behavioral risk with a fixed strategy. It holds no
// mutable state and may be shared between goroutines.
type RiskClassifier struct {
	strategy RiskStrategy
	metrics  MetricsInterface
}

// NewRiskClassifier creates a classifier; a nil strategy means rule-based.
func NewRiskClassifier(strategy RiskStrategy, metrics MetricsInterface) *RiskClassifier {
	if strategy == nil {
		strategy = NewRuleBasedRisk()
	}
	return &RiskClassifier{strategy: strategy, metrics: metricsOrNoop(metrics)}
}

// Method returns the tag of the active strategy.
func (c *RiskClassifier) Method() string {
	return c.strategy.Method()
}

// PredictRisk extracts features and classifies them. It never fails: any
// internal error, panic included, yields DefaultRiskPrediction.
func (c *RiskClassifier) PredictRisk(profile models.StudentProfile, history []models.AssessmentRecord) RiskPrediction {
	return c.PredictFromFeatures(features.ExtractStudentFeatures(profile, history))
}

// PredictFromFeatures classifies an already extracted vector.
func (c *RiskClassifier) PredictFromFeatures(v features.Vector) (result RiskPrediction) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Risk prediction panicked, returning default")
			c.metrics.MLFailuresInc(ModelKindRisk)
			result = DefaultRiskPrediction()
		}
		c.metrics.MLLatencyObserve(ModelKindRisk, time.Since(start).Seconds())
		c.metrics.MLPredictionsInc(ModelKindRisk, result.Method)
	}()

	prediction, err := c.strategy.Classify(v)
	if err != nil {
		log.Error().Err(err).Str("method", c.strategy.Method()).Msg("Risk prediction failed, returning default")
		c.metrics.MLFailuresInc(ModelKindRisk)
		return DefaultRiskPrediction()
	}

	if prediction.Method == MethodRuleBased {
		c.metrics.MLFallbackUseInc(ModelKindRisk)
	}
	c.metrics.MLConfidenceObserve(ModelKindRisk, prediction.Confidence)

	log.Debug().
		Str("risk_level", string(prediction.Category)).
		Float64("confidence", prediction.Confidence).
		Str("method", prediction.Method).
		Msg("Risk prediction")

	return prediction
}
