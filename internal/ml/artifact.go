package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Artifact file names inside a model version directory.
const (
	ModelFile    = "model.json"
	ScalerFile   = "scaler.json"
	MetadataFile = "metadata.json"
)

// Capabilities a classifier artifact may declare.
const (
	CapabilityPredict      = "predict"
	CapabilityPredictProba = "predict_proba"
)

var (
	// ErrArtifactNotFound means the classifier file is absent. It is
	// recoverable: callers fall back to rule-based scoring.
	ErrArtifactNotFound = errors.New("model artifact not found")
	// ErrInvalidArtifact means an artifact exists but fails its shape or
	// capability checks. It is a fatal configuration error.
	ErrInvalidArtifact = errors.New("invalid model artifact")
)

// ModelMetadata contains information about a trained model
type ModelMetadata struct {
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	FeatureNames []string  `json:"feature_names"`
	Labels       []string  `json:"labels,omitempty"`
	Accuracy     float64   `json:"accuracy"`
	TrainingRows int       `json:"training_rows"`
}

// Classifier is a linear classifier serialized as JSON. Multi-class models
// carry one coefficient row per class and score with softmax; binary models
// may carry a single row scored with the logistic function.
type Classifier struct {
	Kind               string      `json:"kind"`
	Capabilities       []string    `json:"capabilities"`
	Classes            []int       `json:"classes"`
	Coefficients       [][]float64 `json:"coefficients"`
	Intercepts         []float64   `json:"intercepts"`
	FeatureImportances []float64   `json:"feature_importances,omitempty"`
}

// Can reports whether the artifact declares a capability.
func (c *Classifier) Can(capability string) bool {
	for _, have := range c.Capabilities {
		if have == capability {
			return true
		}
	}
	return false
}

// Width is the number of input features the classifier expects.
func (c *Classifier) Width() int {
	if len(c.Coefficients) == 0 {
		return 0
	}
	return len(c.Coefficients[0])
}

func (c *Classifier) validate() error {
	if !c.Can(CapabilityPredict) {
		return fmt.Errorf("classifier does not expose %q", CapabilityPredict)
	}
	if len(c.Coefficients) == 0 || c.Width() == 0 {
		return errors.New("classifier has no coefficients")
	}
	for i, row := range c.Coefficients {
		if len(row) != c.Width() {
			return fmt.Errorf("coefficient row %d has %d values, expected %d", i, len(row), c.Width())
		}
	}
	if len(c.Intercepts) != len(c.Coefficients) {
		return fmt.Errorf("expected %d intercepts, got %d", len(c.Coefficients), len(c.Intercepts))
	}
	if len(c.Classes) == 0 {
		n := len(c.Coefficients)
		if n == 1 {
			n = 2
		}
		c.Classes = make([]int, n)
		for i := range c.Classes {
			c.Classes[i] = i
		}
	}
	if len(c.Coefficients) == 1 && len(c.Classes) != 2 {
		return fmt.Errorf("single-row classifier must have 2 classes, got %d", len(c.Classes))
	}
	if len(c.Coefficients) > 1 && len(c.Classes) != len(c.Coefficients) {
		return fmt.Errorf("expected %d classes, got %d", len(c.Coefficients), len(c.Classes))
	}
	seen := make(map[int]bool, len(c.Classes))
	for _, class := range c.Classes {
		if seen[class] {
			return fmt.Errorf("duplicate class %d", class)
		}
		seen[class] = true
	}
	if n := len(c.FeatureImportances); n != 0 && n != c.Width() {
		return fmt.Errorf("expected %d feature importances, got %d", c.Width(), n)
	}
	return nil
}

// PredictProba returns one probability per class, in class order.
func (c *Classifier) PredictProba(x []float64) ([]float64, error) {
	if len(x) != c.Width() {
		return nil, fmt.Errorf("expected %d features, got %d", c.Width(), len(x))
	}

	if len(c.Coefficients) == 1 {
		p := sigmoid(dot(c.Coefficients[0], x) + c.Intercepts[0])
		return []float64{1 - p, p}, nil
	}

	logits := make([]float64, len(c.Coefficients))
	maxLogit := math.Inf(-1)
	for i, row := range c.Coefficients {
		logits[i] = dot(row, x) + c.Intercepts[i]
		if logits[i] > maxLogit {
			maxLogit = logits[i]
		}
	}

	var sum float64
	for i := range logits {
		logits[i] = math.Exp(logits[i] - maxLogit)
		sum += logits[i]
	}
	for i := range logits {
		logits[i] /= sum
	}
	return logits, nil
}

// ClassIndex returns the position of class in the probability vector, or -1.
func (c *Classifier) ClassIndex(class int) int {
	for i, have := range c.Classes {
		if have == class {
			return i
		}
	}
	return -1
}

// Predict returns the class with the highest probability.
func (c *Classifier) Predict(x []float64) (int, error) {
	probs, err := c.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return c.Classes[argmax(probs)], nil
}

// Scaler standardizes features as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform returns a scaled copy of x. Zero scales are treated as 1.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, val := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (val - s.Mean[i]) / scale
	}
	return out, nil
}

// Artifact is a loaded model version: classifier plus optional scaler and
// metadata. It is never modified after loading.
type Artifact struct {
	Dir      string
	Model    *Classifier
	Scaler   *Scaler
	Metadata *ModelMetadata
	ModTime  time.Time
}

// FeatureNames returns the column order declared by the metadata, or nil.
func (a *Artifact) FeatureNames() []string {
	if a.Metadata == nil {
		return nil
	}
	return a.Metadata.FeatureNames
}

// Prepare scales an ordered feature row when the artifact carries a scaler.
func (a *Artifact) Prepare(x []float64) ([]float64, error) {
	if a.Scaler == nil {
		return x, nil
	}
	return a.Scaler.Transform(x)
}

// LoadArtifact reads a model version directory. A missing classifier file
// yields ErrArtifactNotFound; every other failure yields ErrInvalidArtifact.
func LoadArtifact(ctx context.Context, dir string) (*Artifact, error) {
	modelPath := filepath.Join(dir, ModelFile)
	info, err := os.Stat(modelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, modelPath)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrInvalidArtifact, modelPath, err)
	}

	art := &Artifact{Dir: dir, ModTime: info.ModTime()}

	var model Classifier
	if err := readJSON(modelPath, &model); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := model.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, modelPath, err)
	}
	art.Model = &model
	log.Info().Str("model_path", modelPath).Int("features", model.Width()).Msg("Loaded classifier")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scalerPath := filepath.Join(dir, ScalerFile)
	if _, err := os.Stat(scalerPath); err == nil {
		var scaler Scaler
		if err := readJSON(scalerPath, &scaler); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		if len(scaler.Mean) != model.Width() || len(scaler.Scale) != model.Width() {
			return nil, fmt.Errorf("%w: scaler width does not match classifier width %d", ErrInvalidArtifact, model.Width())
		}
		art.Scaler = &scaler
		log.Info().Str("scaler_path", scalerPath).Msg("Loaded scaler")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metadataPath := filepath.Join(dir, MetadataFile)
	if _, err := os.Stat(metadataPath); err == nil {
		var metadata ModelMetadata
		if err := readJSON(metadataPath, &metadata); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		if n := len(metadata.FeatureNames); n != 0 && n != model.Width() {
			return nil, fmt.Errorf("%w: metadata lists %d features, classifier expects %d", ErrInvalidArtifact, n, model.Width())
		}
		art.Metadata = &metadata
		log.Info().Int("feature_names", len(metadata.FeatureNames)).Str("version", metadata.Version).Msg("Loaded model metadata")
	}

	return art, nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func argmax(xs []float64) int {
	best := 0
	for i := range xs {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

// sigmoid converts a score to a probability
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
