package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduanalytics/internal/common"
	"eduanalytics/internal/ml"
	"eduanalytics/internal/models"
	"eduanalytics/internal/storage"
	"eduanalytics/internal/trend"
)

var fixedNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

type countingRecorder struct {
	mu           sync.Mutex
	trends       map[string]int
	insufficient map[string]int
	hits, misses int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{trends: map[string]int{}, insufficient: map[string]int{}}
}

func (r *countingRecorder) TrendRequestsInc(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trends[kind]++
}

func (r *countingRecorder) InsufficientDataInc(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insufficient[op]++
}

func (r *countingRecorder) CacheHitInc() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *countingRecorder) CacheMissInc() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

type fixture struct {
	svc      *service
	store    *storage.Store
	redis    *miniredis.Miniredis
	recorder *countingRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	recorder := newCountingRecorder()
	svc := NewService(store, ml.NewRuleBasedEngine(nil), Options{
		Cache:           client,
		CacheTTL:        time.Minute,
		TrendWindowDays: 90,
		Metrics:         recorder,
		Logger:          zerolog.Nop(),
	}).(*service)
	svc.now = func() time.Time { return fixedNow }

	return fixture{svc: svc, store: store, redis: server, recorder: recorder}
}

func (f fixture) student(t *testing.T, profile models.StudentProfile) string {
	t.Helper()
	saved, err := f.svc.RecordStudent(context.Background(), profile)
	require.NoError(t, err)
	return saved.ID
}

func TestRecordStudentValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordStudent(context.Background(), models.StudentProfile{Age: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))
	assert.Equal(t, "Age", validationErrors[0].Field())

	_, err = f.svc.RecordStudent(context.Background(), models.StudentProfile{
		Age:             8,
		LearningProfile: map[string]float64{common.DomainVisual: 12},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidatorIndicatorType(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	valid := models.IndicatorMeasurement{StudentID: "s1", IndicatorType: models.Flexibility, Score: 5, MeasuredAt: time.Now()}
	assert.NoError(t, v.Struct(valid))

	invalid := valid
	invalid.IndicatorType = "curiosity"
	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(v.Struct(invalid), &validationErrors))
	assert.Equal(t, "indicator_type", validationErrors[0].Tag())
}

func TestRecordRequiresKnownStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordAssessment(ctx, models.AssessmentRecord{
		StudentID:        "ghost",
		CompletionStatus: common.StatusCompleted,
		EngagementLevel:  common.EngagementHigh,
		DifficultyRating: common.DifficultyAppropriate,
	})
	assert.ErrorIs(t, err, ErrStudentNotFound)

	_, err = f.svc.RecordIndicator(ctx, models.IndicatorMeasurement{StudentID: "ghost", IndicatorType: models.AnxietyLevel, Score: 5})
	assert.ErrorIs(t, err, ErrStudentNotFound)

	id := f.student(t, models.StudentProfile{Age: 9})
	_, err = f.svc.RecordIndicator(ctx, models.IndicatorMeasurement{StudentID: id, IndicatorType: "mood", Score: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	saved, err := f.svc.RecordIndicator(ctx, models.IndicatorMeasurement{StudentID: id, IndicatorType: models.AnxietyLevel, Score: 5})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, saved.MeasuredAt)
	assert.Equal(t, models.ContextOther, saved.Context)
}

func TestPredictRiskStrugglingStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.student(t, models.StudentProfile{Name: "Leo", Age: 10, SupportLevel: common.SupportLevel3})

	for i := 0; i < 10; i++ {
		record := models.AssessmentRecord{
			StudentID:        id,
			CompletionStatus: common.StatusCompleted,
			EngagementLevel:  common.EngagementMedium,
			DifficultyRating: common.DifficultyAppropriate,
			CreatedAt:        fixedNow.Add(time.Duration(i-10) * time.Hour),
		}
		if i < 7 {
			record.CompletionStatus = common.StatusAbandoned
			record.EngagementLevel = common.EngagementLow
			record.DifficultyRating = common.DifficultyTooHard
		}
		_, err := f.svc.RecordAssessment(ctx, record)
		require.NoError(t, err)
	}

	prediction, err := f.svc.PredictRisk(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, []ml.RiskCategory{ml.RiskHigh, ml.RiskVeryHigh}, prediction.Category)
	assert.Equal(t, ml.MethodRuleBased, prediction.Method)

	_, err = f.svc.PredictRisk(ctx, "ghost")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestPredictSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.student(t, models.StudentProfile{Age: 8})

	prediction, err := f.svc.PredictSuccess(ctx, id, models.ActivityDescriptor{
		Difficulty:        5,
		DurationMinutes:   20,
		ActivityType:      common.ActivitySensory,
		HasVisualSupports: true,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.55, prediction.Probability, 1e-9)
	assert.Equal(t, ml.MethodRuleBased, prediction.Method)

	_, err = f.svc.PredictSuccess(ctx, id, models.ActivityDescriptor{Difficulty: 11})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.PredictSuccess(ctx, id, models.ActivityDescriptor{ActivityType: "painting"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzeProgressCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.student(t, models.StudentProfile{Age: 11})

	_, err := f.svc.AnalyzeProgress(ctx, id)
	require.ErrorIs(t, err, ml.ErrInsufficientData)
	assert.Equal(t, 1, f.recorder.insufficient["progress"])

	record := models.AssessmentRecord{
		StudentID:        id,
		CompletionStatus: common.StatusCompleted,
		EngagementLevel:  common.EngagementHigh,
		DifficultyRating: common.DifficultyAppropriate,
		CreatedAt:        fixedNow.Add(-time.Hour),
	}
	_, err = f.svc.RecordAssessment(ctx, record)
	require.NoError(t, err)

	first, err := f.svc.AnalyzeProgress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalAssessments)
	assert.Equal(t, ml.EngagementInsufficientData, first.EngagementTrend)
	assert.True(t, f.redis.Exists(progressKey(id)))

	cached, err := f.svc.AnalyzeProgress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.TotalAssessments, cached.TotalAssessments)
	assert.Equal(t, 1, f.recorder.hits)

	record.CreatedAt = fixedNow
	_, err = f.svc.RecordAssessment(ctx, record)
	require.NoError(t, err)
	assert.False(t, f.redis.Exists(progressKey(id)))

	fresh, err := f.svc.AnalyzeProgress(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalAssessments)
}

func recordSeries(t *testing.T, f fixture, id string, indicator models.IndicatorType, start time.Time, scores ...float64) {
	t.Helper()
	for i, score := range scores {
		_, err := f.svc.RecordIndicator(context.Background(), models.IndicatorMeasurement{
			StudentID:     id,
			IndicatorType: indicator,
			Context:       models.ContextClassroom,
			Score:         score,
			MeasuredAt:    start.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}
}

func TestIndicatorTrend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.student(t, models.StudentProfile{Age: 7})

	recordSeries(t, f, id, models.SocialInteraction, fixedNow.AddDate(0, 0, -20), 2, 2, 2, 8, 8, 8)

	result, err := f.svc.IndicatorTrend(ctx, id, models.SocialInteraction, 0)
	require.NoError(t, err)
	assert.Equal(t, trend.Improving, result.Direction)
	assert.Equal(t, 6, result.Count)
	assert.Equal(t, "Social interaction", result.DisplayName)

	_, err = f.svc.IndicatorTrend(ctx, id, models.AnxietyLevel, 30)
	assert.ErrorIs(t, err, trend.ErrNotFound)
	assert.Equal(t, 1, f.recorder.insufficient["trend"])

	_, err = f.svc.IndicatorTrend(ctx, id, "mood", 30)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.IndicatorTrend(ctx, "ghost", models.SocialInteraction, 30)
	assert.ErrorIs(t, err, ErrStudentNotFound)

	assert.Equal(t, 3, f.recorder.trends["trend"])
}

func TestCompareIndicator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.student(t, models.StudentProfile{Age: 12})

	p1 := trend.Period{Start: fixedNow.AddDate(0, 0, -60), End: fixedNow.AddDate(0, 0, -31)}
	p2 := trend.Period{Start: fixedNow.AddDate(0, 0, -30), End: fixedNow}
	recordSeries(t, f, id, models.SelfRegulation, p1.Start, 5, 5)
	recordSeries(t, f, id, models.SelfRegulation, p2.Start, 7, 7)

	result, err := f.svc.CompareIndicator(ctx, id, models.SelfRegulation, p1, p2)
	require.NoError(t, err)
	assert.InDelta(t, 40, result.ChangePercent, 1e-9)
	assert.Equal(t, trend.Improved, result.Direction)
	assert.True(t, result.Significant)

	empty := trend.Period{Start: fixedNow.AddDate(-1, 0, 0), End: fixedNow.AddDate(-1, 0, 1)}
	_, err = f.svc.CompareIndicator(ctx, id, models.SelfRegulation, empty, p2)
	assert.ErrorIs(t, err, trend.ErrNotFound)

	_, err = f.svc.CompareIndicator(ctx, id, models.SelfRegulation, trend.Period{Start: p1.End, End: p1.Start}, p2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.student(t, models.StudentProfile{Name: "Maya", Age: 9})

	empty, err := f.svc.Profile(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalMeasurements)
	assert.Nil(t, empty.LastMeasuredAt)

	recordSeries(t, f, id, models.SocialInteraction, fixedNow.AddDate(0, 0, -10), 8, 9)
	recordSeries(t, f, id, models.AnxietyLevel, fixedNow.AddDate(0, 0, -5), 8)
	recordSeries(t, f, id, models.Flexibility, fixedNow.AddDate(0, 0, -200), 3)

	profile, err := f.svc.Profile(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "Maya", profile.StudentName)
	assert.Equal(t, 4, profile.TotalMeasurements)
	require.NotNil(t, profile.LastMeasuredAt)
	assert.True(t, profile.LastMeasuredAt.Equal(fixedNow.AddDate(0, 0, -5)))

	social := profile.Summary[models.SocialInteraction]
	assert.Equal(t, 2, social.Count)
	assert.InDelta(t, 8.5, social.AverageScore, 1e-9)
	assert.Equal(t, 9.0, social.LatestScore)
	assert.False(t, social.LatestConcerning)

	assert.Equal(t, []string{"Anxiety level", "Flexibility"}, profile.Concerning)
	assert.Equal(t, []string{"Social interaction"}, profile.Strengths)
	assert.Equal(t, []string{"Anxiety level", "Flexibility"}, profile.AreasForDevelopment)

	// flexibility was last measured outside the trend window
	require.Len(t, profile.Trends, 2)
	assert.Equal(t, models.SocialInteraction, profile.Trends[0].IndicatorType)
	assert.Equal(t, models.AnxietyLevel, profile.Trends[1].IndicatorType)

	// writes that bypass the service are not visible until the entry expires
	_, err = f.store.PutIndicator(models.IndicatorMeasurement{StudentID: id, IndicatorType: models.AnxietyLevel, Score: 2, MeasuredAt: fixedNow})
	require.NoError(t, err)
	cached, err := f.svc.Profile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, cached.TotalMeasurements)

	f.redis.FastForward(2 * time.Minute)
	refreshed, err := f.svc.Profile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, refreshed.TotalMeasurements)

	_, err = f.svc.Profile(ctx, "ghost")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestServiceWithoutCache(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	svc := NewService(store, ml.NewRuleBasedEngine(nil), Options{Logger: zerolog.Nop()})
	ctx := context.Background()

	saved, err := svc.RecordStudent(ctx, models.StudentProfile{Age: 10})
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, profile.StudentID)
}
