package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"eduanalytics/internal/models"
	"eduanalytics/internal/storage"
	"eduanalytics/internal/trend"
)

// Profile thresholds on the 1-10 indicator scale.
const (
	strengthMean     = 7.0
	developmentMean  = 4.0
	profileTrendDays = 90
)

// IndicatorTrend is a trend over one indicator of one student.
type IndicatorTrend struct {
	StudentID     string               `json:"student_id"`
	IndicatorType models.IndicatorType `json:"indicator_type"`
	DisplayName   string               `json:"indicator_name"`
	trend.TrendResult
}

// IndicatorComparison compares one indicator across two periods.
type IndicatorComparison struct {
	StudentID     string               `json:"student_id"`
	IndicatorType models.IndicatorType `json:"indicator_type"`
	DisplayName   string               `json:"indicator_name"`
	trend.ComparisonResult
}

// IndicatorSummary aggregates every measurement of one indicator.
type IndicatorSummary struct {
	Count            int     `json:"count"`
	AverageScore     float64 `json:"average_score"`
	LatestScore      float64 `json:"latest_score"`
	LatestConcerning bool    `json:"is_concerning"`
}

// SocioEmotionalProfile is the aggregated view of a student's indicators.
type SocioEmotionalProfile struct {
	StudentID           string                                    `json:"student_id"`
	StudentName         string                                    `json:"student_name,omitempty"`
	TotalMeasurements   int                                       `json:"total_measurements"`
	LastMeasuredAt      *time.Time                                `json:"last_measured_at,omitempty"`
	Summary             map[models.IndicatorType]IndicatorSummary `json:"indicators_summary"`
	Concerning          []string                                  `json:"concerning_indicators"`
	Strengths           []string                                  `json:"strengths"`
	AreasForDevelopment []string                                  `json:"areas_for_development"`
	Trends              []IndicatorTrend                          `json:"trends"`
}

func (s *service) series(studentID string, indicator models.IndicatorType) ([]trend.Point, error) {
	measurements, err := s.store.ListIndicators(storage.IndicatorFilter{StudentID: studentID, Type: indicator})
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	return toPoints(measurements), nil
}

func toPoints(measurements []models.IndicatorMeasurement) []trend.Point {
	points := make([]trend.Point, len(measurements))
	for i, m := range measurements {
		points[i] = trend.Point{Time: m.MeasuredAt, Score: m.Score}
	}
	return points
}

func checkIndicator(indicator models.IndicatorType) error {
	if !indicator.Valid() {
		return fmt.Errorf("%w: unknown indicator type %q", ErrInvalidInput, indicator)
	}
	return nil
}

func (s *service) IndicatorTrend(ctx context.Context, studentID string, indicator models.IndicatorType, days int) (IndicatorTrend, error) {
	_, span := s.start(ctx, "analytics.indicator_trend", studentID)
	defer span.End()
	span.SetAttributes(attribute.String("analytics.indicator_type", string(indicator)))

	if err := checkIndicator(indicator); err != nil {
		return IndicatorTrend{}, fail(span, err, "invalid_indicator")
	}
	if days <= 0 {
		days = s.window
	}
	s.metrics.TrendRequestsInc("trend")

	if _, err := s.student(studentID); err != nil {
		return IndicatorTrend{}, fail(span, err, "student_lookup_failed")
	}
	points, err := s.series(studentID, indicator)
	if err != nil {
		return IndicatorTrend{}, fail(span, err, "list_indicators_failed")
	}

	result, err := s.analyzer().Trend(points, days)
	if err != nil {
		if errors.Is(err, trend.ErrNotFound) {
			s.metrics.InsufficientDataInc("trend")
		}
		return IndicatorTrend{}, fail(span, err, "trend_failed")
	}

	return IndicatorTrend{
		StudentID:     studentID,
		IndicatorType: indicator,
		DisplayName:   indicator.DisplayName(),
		TrendResult:   result,
	}, nil
}

func (s *service) CompareIndicator(ctx context.Context, studentID string, indicator models.IndicatorType, p1, p2 trend.Period) (IndicatorComparison, error) {
	_, span := s.start(ctx, "analytics.compare_indicator", studentID)
	defer span.End()
	span.SetAttributes(attribute.String("analytics.indicator_type", string(indicator)))

	if err := checkIndicator(indicator); err != nil {
		return IndicatorComparison{}, fail(span, err, "invalid_indicator")
	}
	if p1.End.Before(p1.Start) || p2.End.Before(p2.Start) {
		return IndicatorComparison{}, fail(span, fmt.Errorf("%w: period ends before it starts", ErrInvalidInput), "invalid_period")
	}
	s.metrics.TrendRequestsInc("compare")

	if _, err := s.student(studentID); err != nil {
		return IndicatorComparison{}, fail(span, err, "student_lookup_failed")
	}
	points, err := s.series(studentID, indicator)
	if err != nil {
		return IndicatorComparison{}, fail(span, err, "list_indicators_failed")
	}

	result, err := s.analyzer().Compare(points, p1, p2)
	if err != nil {
		if errors.Is(err, trend.ErrNotFound) {
			s.metrics.InsufficientDataInc("compare")
		}
		return IndicatorComparison{}, fail(span, err, "compare_failed")
	}
	span.SetAttributes(attribute.Float64("analytics.change_percentage", result.ChangePercent))

	return IndicatorComparison{
		StudentID:        studentID,
		IndicatorType:    indicator,
		DisplayName:      indicator.DisplayName(),
		ComparisonResult: result,
	}, nil
}

func (s *service) Profile(ctx context.Context, studentID string) (SocioEmotionalProfile, error) {
	ctx, span := s.start(ctx, "analytics.profile", studentID)
	defer span.End()

	var profile SocioEmotionalProfile
	key := profileKey(studentID)
	if s.cacheGet(ctx, span, key, &profile) {
		return profile, nil
	}

	student, err := s.student(studentID)
	if err != nil {
		return SocioEmotionalProfile{}, fail(span, err, "student_lookup_failed")
	}
	measurements, err := s.store.ListIndicators(storage.IndicatorFilter{StudentID: studentID})
	if err != nil {
		return SocioEmotionalProfile{}, fail(span, fmt.Errorf("list indicators: %w", err), "list_indicators_failed")
	}

	profile = s.buildProfile(student, measurements)
	span.SetAttributes(attribute.Int("analytics.measurements", profile.TotalMeasurements))

	s.cachePut(ctx, key, profile)
	return profile, nil
}

func (s *service) buildProfile(student models.StudentProfile, measurements []models.IndicatorMeasurement) SocioEmotionalProfile {
	profile := SocioEmotionalProfile{
		StudentID:           student.ID,
		StudentName:         student.Name,
		TotalMeasurements:   len(measurements),
		Summary:             map[models.IndicatorType]IndicatorSummary{},
		Concerning:          []string{},
		Strengths:           []string{},
		AreasForDevelopment: []string{},
		Trends:              []IndicatorTrend{},
	}
	if len(measurements) == 0 {
		return profile
	}

	byType := make(map[models.IndicatorType][]models.IndicatorMeasurement)
	last := measurements[0].MeasuredAt
	for _, m := range measurements {
		byType[m.IndicatorType] = append(byType[m.IndicatorType], m)
		if m.MeasuredAt.After(last) {
			last = m.MeasuredAt
		}
	}
	profile.LastMeasuredAt = &last

	analyzer := s.analyzer()
	for _, indicator := range models.IndicatorTypes {
		group := byType[indicator]
		if len(group) == 0 {
			continue
		}

		var sum float64
		concerning := false
		latest := group[0]
		for _, m := range group {
			sum += m.Score
			if m.Concerning() {
				concerning = true
			}
			if !m.MeasuredAt.Before(latest.MeasuredAt) {
				latest = m
			}
		}
		mean := sum / float64(len(group))

		profile.Summary[indicator] = IndicatorSummary{
			Count:            len(group),
			AverageScore:     mean,
			LatestScore:      latest.Score,
			LatestConcerning: latest.Concerning(),
		}

		name := indicator.DisplayName()
		if concerning {
			profile.Concerning = append(profile.Concerning, name)
		}

		// for anxiety-like indicators a low mean is the good outcome
		good, poor := mean >= strengthMean, mean <= developmentMean
		if !indicator.Positive() {
			good, poor = mean <= developmentMean, mean >= strengthMean
		}
		if good {
			profile.Strengths = append(profile.Strengths, name)
		}
		if poor {
			profile.AreasForDevelopment = append(profile.AreasForDevelopment, name)
		}

		result, err := analyzer.Trend(toPoints(group), profileTrendDays)
		if err != nil {
			continue
		}
		profile.Trends = append(profile.Trends, IndicatorTrend{
			StudentID:     student.ID,
			IndicatorType: indicator,
			DisplayName:   name,
			TrendResult:   result,
		})
	}

	return profile
}

func (s *service) analyzer() *trend.Analyzer {
	return trend.NewAnalyzer(s.now)
}
