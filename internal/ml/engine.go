package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"eduanalytics/internal/models"
)

// Options configures Load.
type Options struct {
	// ModelPath is the root holding one directory per model kind.
	ModelPath string
	// Version is the version directory to load, or VersionLatest.
	Version string
	Metrics MetricsInterface
}

// Engine bundles the risk classifier and success estimator. It is built once
// by Load and is read-only afterwards, so any number of goroutines may call
// its prediction methods concurrently.
type Engine struct {
	risk       *RiskClassifier
	success    *SuccessEstimator
	riskModel  *Artifact
	manager    *ModelManager
	loadedAt   time.Time
	modelsRoot string
}

// NewRuleBasedEngine builds an engine that never touches the filesystem.
func NewRuleBasedEngine(metrics MetricsInterface) *Engine {
	return &Engine{
		risk:     NewRiskClassifier(NewRuleBasedRisk(), metrics),
		success:  NewSuccessEstimator(NewRuleBasedSuccess(), metrics),
		loadedAt: time.Now(),
	}
}

// Load reads the risk and success artifacts and selects a strategy for each.
// A missing classifier file downgrades that component to rule-based scoring;
// any other artifact problem is returned as an error wrapping
// ErrInvalidArtifact.
func Load(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Version == "" {
		opts.Version = "production"
	}
	metrics := metricsOrNoop(opts.Metrics)
	manager := NewModelManager(opts.ModelPath)

	e := &Engine{manager: manager, modelsRoot: opts.ModelPath}

	riskArtifact, err := loadOptional(ctx, manager, ModelKindRisk, opts.Version, metrics)
	if err != nil {
		return nil, err
	}
	var riskStrategy RiskStrategy = NewRuleBasedRisk()
	if riskArtifact != nil {
		mr, err := NewModelRisk(riskArtifact)
		if err != nil {
			return nil, err
		}
		riskStrategy = mr
		e.riskModel = riskArtifact
	}

	successArtifact, err := loadOptional(ctx, manager, ModelKindSuccess, opts.Version, metrics)
	if err != nil {
		return nil, err
	}
	var successStrategy SuccessStrategy = NewRuleBasedSuccess()
	if successArtifact != nil {
		ms, err := NewModelSuccess(successArtifact)
		if err != nil {
			return nil, err
		}
		successStrategy = ms
	}

	e.risk = NewRiskClassifier(riskStrategy, metrics)
	e.success = NewSuccessEstimator(successStrategy, metrics)
	e.loadedAt = time.Now()

	log.Info().
		Str("model_path", opts.ModelPath).
		Str("version", opts.Version).
		Str("risk_method", riskStrategy.Method()).
		Str("success_method", successStrategy.Method()).
		Msg("Prediction engine loaded")

	return e, nil
}

func loadOptional(ctx context.Context, manager *ModelManager, kind, version string, metrics MetricsInterface) (*Artifact, error) {
	artifact, err := manager.Load(ctx, kind, version)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			log.Warn().Err(err).Str("kind", kind).Msg("Model files not found, using rule-based fallback")
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	metrics.MLModelAgeSet(kind, time.Since(artifact.ModTime).Seconds())
	return artifact, nil
}

// Risk returns the risk classifier.
func (e *Engine) Risk() *RiskClassifier { return e.risk }

// Success returns the success estimator.
func (e *Engine) Success() *SuccessEstimator { return e.success }

// Manager returns the model manager, nil for rule-based engines.
func (e *Engine) Manager() *ModelManager { return e.manager }

// PredictRisk classifies a student. See RiskClassifier.PredictRisk.
func (e *Engine) PredictRisk(profile models.StudentProfile, history []models.AssessmentRecord) RiskPrediction {
	return e.risk.PredictRisk(profile, history)
}

// PredictSuccess estimates activity success. See SuccessEstimator.PredictSuccess.
func (e *Engine) PredictSuccess(profile models.StudentProfile, activity models.ActivityDescriptor, history []models.AssessmentRecord) (SuccessPrediction, error) {
	return e.success.PredictSuccess(profile, activity, history)
}

// FeatureImportance ranks the risk model's features. It is empty on the
// rule-based path or when the artifact carries no importances.
func (e *Engine) FeatureImportance() []FeatureWeight {
	return RankFeatureImportance(e.riskModel)
}

// Status summarizes the loaded strategies.
type Status struct {
	RiskMethod    string    `json:"risk_method"`
	SuccessMethod string    `json:"success_method"`
	ModelPath     string    `json:"model_path,omitempty"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// Status reports which strategy each component runs.
func (e *Engine) Status() Status {
	return Status{
		RiskMethod:    e.risk.Method(),
		SuccessMethod: e.success.Method(),
		ModelPath:     e.modelsRoot,
		LoadedAt:      e.loadedAt,
	}
}
