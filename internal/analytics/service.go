// Package analytics ties the record store, the prediction engine and the
// trend analyzer together behind a single Service.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eduanalytics/internal/ml"
	"eduanalytics/internal/models"
	"eduanalytics/internal/storage"
	"eduanalytics/internal/trend"
)

var (
	// ErrStudentNotFound is returned for operations on an unknown student.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidInput wraps validation failures. The validator's
	// ValidationErrors remain reachable with errors.As.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the persistence the service needs. *storage.Store satisfies it.
type Store interface {
	PutStudent(models.StudentProfile) (models.StudentProfile, error)
	GetStudent(id string) (models.StudentProfile, error)
	PutAssessment(models.AssessmentRecord) (models.AssessmentRecord, error)
	ListAssessments(studentID string) ([]models.AssessmentRecord, error)
	PutIndicator(models.IndicatorMeasurement) (models.IndicatorMeasurement, error)
	ListIndicators(storage.IndicatorFilter) ([]models.IndicatorMeasurement, error)
}

// Predictor produces risk and success predictions. *ml.Engine satisfies it.
type Predictor interface {
	PredictRisk(models.StudentProfile, []models.AssessmentRecord) ml.RiskPrediction
	PredictSuccess(models.StudentProfile, models.ActivityDescriptor, []models.AssessmentRecord) (ml.SuccessPrediction, error)
}

// Recorder receives service level metrics. *metrics.Metrics satisfies it.
type Recorder interface {
	TrendRequestsInc(kind string)
	InsufficientDataInc(operation string)
	CacheHitInc()
	CacheMissInc()
}

type noopRecorder struct{}

func (noopRecorder) TrendRequestsInc(string)    {}
func (noopRecorder) InsufficientDataInc(string) {}
func (noopRecorder) CacheHitInc()               {}
func (noopRecorder) CacheMissInc()              {}

// Options configures the service. Cache may be nil to disable caching.
type Options struct {
	Cache           *redis.Client
	CacheTTL        time.Duration
	TrendWindowDays int
	Metrics         Recorder
	Logger          zerolog.Logger
}

// Service is the application facing analytics API.
type Service interface {
	RecordStudent(ctx context.Context, profile models.StudentProfile) (models.StudentProfile, error)
	RecordAssessment(ctx context.Context, record models.AssessmentRecord) (models.AssessmentRecord, error)
	RecordIndicator(ctx context.Context, m models.IndicatorMeasurement) (models.IndicatorMeasurement, error)

	PredictRisk(ctx context.Context, studentID string) (ml.RiskPrediction, error)
	PredictSuccess(ctx context.Context, studentID string, activity models.ActivityDescriptor) (ml.SuccessPrediction, error)
	AnalyzeProgress(ctx context.Context, studentID string) (ml.ProgressAnalysis, error)

	IndicatorTrend(ctx context.Context, studentID string, indicator models.IndicatorType, days int) (IndicatorTrend, error)
	CompareIndicator(ctx context.Context, studentID string, indicator models.IndicatorType, p1, p2 trend.Period) (IndicatorComparison, error)
	Profile(ctx context.Context, studentID string) (SocioEmotionalProfile, error)
}

type service struct {
	store     Store
	predictor Predictor
	validate  *validator.Validate
	cache     *redis.Client
	cacheTTL  time.Duration
	window    int
	metrics   Recorder
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService builds the analytics service.
func NewService(store Store, predictor Predictor, opts Options) Service {
	window := opts.TrendWindowDays
	if window <= 0 {
		window = 90
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = noopRecorder{}
	}
	validate, err := newValidator()
	if err != nil {
		panic(err)
	}
	return &service{
		store:     store,
		predictor: predictor,
		validate:  validate,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		window:    window,
		metrics:   recorder,
		logger:    opts.Logger.With().Str("component", "analytics_service").Logger(),
		tracer:    otel.Tracer("eduanalytics/internal/analytics"),
		now:       time.Now,
	}
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("indicator_type", func(fl validator.FieldLevel) bool {
		return models.IndicatorType(fl.Field().String()).Valid()
	})
	if err != nil {
		return nil, fmt.Errorf("register indicator_type validation: %w", err)
	}
	return v, nil
}

func (s *service) check(value any) error {
	if err := s.validate.Struct(value); err != nil {
		return errors.Join(ErrInvalidInput, err)
	}
	return nil
}

func (s *service) start(ctx context.Context, name, studentID string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	if studentID != "" {
		span.SetAttributes(attribute.String("analytics.student_id", studentID))
	}
	return ctx, span
}

func fail(span trace.Span, err error, status string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

func (s *service) student(id string) (models.StudentProfile, error) {
	profile, err := s.store.GetStudent(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.StudentProfile{}, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
		}
		return models.StudentProfile{}, err
	}
	return profile, nil
}

func (s *service) RecordStudent(ctx context.Context, profile models.StudentProfile) (models.StudentProfile, error) {
	ctx, span := s.start(ctx, "analytics.record_student", profile.ID)
	defer span.End()

	if err := s.check(profile); err != nil {
		return models.StudentProfile{}, fail(span, err, "invalid_student")
	}

	saved, err := s.store.PutStudent(profile)
	if err != nil {
		return models.StudentProfile{}, fail(span, err, "store_student_failed")
	}
	s.invalidate(ctx, saved.ID)

	s.logger.Debug().Str("student_id", saved.ID).Msg("student recorded")
	return saved, nil
}

func (s *service) RecordAssessment(ctx context.Context, record models.AssessmentRecord) (models.AssessmentRecord, error) {
	ctx, span := s.start(ctx, "analytics.record_assessment", record.StudentID)
	defer span.End()

	if err := s.check(record); err != nil {
		return models.AssessmentRecord{}, fail(span, err, "invalid_assessment")
	}
	if _, err := s.student(record.StudentID); err != nil {
		return models.AssessmentRecord{}, fail(span, err, "student_lookup_failed")
	}

	saved, err := s.store.PutAssessment(record)
	if err != nil {
		return models.AssessmentRecord{}, fail(span, err, "store_assessment_failed")
	}
	s.invalidate(ctx, saved.StudentID)
	return saved, nil
}

func (s *service) RecordIndicator(ctx context.Context, m models.IndicatorMeasurement) (models.IndicatorMeasurement, error) {
	ctx, span := s.start(ctx, "analytics.record_indicator", m.StudentID)
	defer span.End()

	if m.MeasuredAt.IsZero() {
		m.MeasuredAt = s.now().UTC()
	}
	if m.Context == "" {
		m.Context = models.ContextOther
	}
	if err := s.check(m); err != nil {
		return models.IndicatorMeasurement{}, fail(span, err, "invalid_indicator")
	}
	if _, err := s.student(m.StudentID); err != nil {
		return models.IndicatorMeasurement{}, fail(span, err, "student_lookup_failed")
	}

	saved, err := s.store.PutIndicator(m)
	if err != nil {
		return models.IndicatorMeasurement{}, fail(span, err, "store_indicator_failed")
	}
	s.invalidate(ctx, saved.StudentID)
	return saved, nil
}

func (s *service) PredictRisk(ctx context.Context, studentID string) (ml.RiskPrediction, error) {
	_, span := s.start(ctx, "analytics.predict_risk", studentID)
	defer span.End()

	profile, history, err := s.studentWithHistory(studentID)
	if err != nil {
		return ml.RiskPrediction{}, fail(span, err, "load_student_failed")
	}

	prediction := s.predictor.PredictRisk(profile, history)
	span.SetAttributes(
		attribute.String("analytics.risk_level", string(prediction.Category)),
		attribute.String("analytics.method", prediction.Method),
	)
	return prediction, nil
}

func (s *service) PredictSuccess(ctx context.Context, studentID string, activity models.ActivityDescriptor) (ml.SuccessPrediction, error) {
	_, span := s.start(ctx, "analytics.predict_success", studentID)
	defer span.End()

	if err := s.check(activity); err != nil {
		return ml.SuccessPrediction{}, fail(span, err, "invalid_activity")
	}
	profile, history, err := s.studentWithHistory(studentID)
	if err != nil {
		return ml.SuccessPrediction{}, fail(span, err, "load_student_failed")
	}

	prediction, err := s.predictor.PredictSuccess(profile, activity, history)
	if err != nil {
		return prediction, fail(span, err, "predict_success_failed")
	}
	span.SetAttributes(attribute.Float64("analytics.success_probability", prediction.Probability))
	return prediction, nil
}

func (s *service) AnalyzeProgress(ctx context.Context, studentID string) (ml.ProgressAnalysis, error) {
	ctx, span := s.start(ctx, "analytics.analyze_progress", studentID)
	defer span.End()

	var analysis ml.ProgressAnalysis
	key := progressKey(studentID)
	if s.cacheGet(ctx, span, key, &analysis) {
		return analysis, nil
	}

	_, history, err := s.studentWithHistory(studentID)
	if err != nil {
		return ml.ProgressAnalysis{}, fail(span, err, "load_student_failed")
	}

	analysis, err = ml.AnalyzeProgress(history)
	if err != nil {
		if errors.Is(err, ml.ErrInsufficientData) {
			s.metrics.InsufficientDataInc("progress")
		}
		return ml.ProgressAnalysis{}, fail(span, err, "analyze_progress_failed")
	}

	s.cachePut(ctx, key, analysis)
	return analysis, nil
}

func (s *service) studentWithHistory(studentID string) (models.StudentProfile, []models.AssessmentRecord, error) {
	profile, err := s.student(studentID)
	if err != nil {
		return models.StudentProfile{}, nil, err
	}
	history, err := s.store.ListAssessments(studentID)
	if err != nil {
		return models.StudentProfile{}, nil, fmt.Errorf("list assessments: %w", err)
	}
	return profile, history, nil
}
