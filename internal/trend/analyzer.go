// Package trend summarizes time-stamped score series: direction over a
// trailing window and the relative change between two periods.
package trend

import (
	"errors"
	"math"
	"sort"
	"time"
)

const (
	// TrendThreshold is the minimum difference between the late and early
	// half means for a series to count as moving.
	TrendThreshold = 1.0
	// ChangeThreshold is the percentage change separating stable from
	// improved or declined.
	ChangeThreshold = 10.0
	// SignificanceThreshold is the absolute percentage change flagged as
	// significant.
	SignificanceThreshold = 20.0
)

var (
	// ErrNotFound means no measurement fell inside the requested window.
	ErrNotFound = errors.New("no measurements in range")
	// ErrZeroBaseline means the first period mean is zero, so no percentage
	// change can be computed.
	ErrZeroBaseline = errors.New("baseline period mean is zero")
)

// Direction of a trend or comparison.
const (
	Improving = "improving"
	Stable    = "stable"
	Declining = "declining"
	Improved  = "improved"
	Declined  = "declined"
)

// Point is one timestamped score.
type Point struct {
	Time  time.Time `json:"measured_at"`
	Score float64   `json:"score"`
}

// TrendResult summarizes the points inside a trailing window.
type TrendResult struct {
	Points     []Point   `json:"points"`
	Mean       float64   `json:"average_score"`
	Direction  string    `json:"trend"`
	FirstScore float64   `json:"first_score"`
	LastScore  float64   `json:"last_score"`
	Count      int       `json:"measurement_count"`
	Since      time.Time `json:"since"`
}

// Period is an inclusive time range.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the inclusive bounds.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// ComparisonResult compares the mean score of two periods.
type ComparisonResult struct {
	Period1       Period  `json:"period1"`
	Period2       Period  `json:"period2"`
	Mean1         float64 `json:"period1_average"`
	Mean2         float64 `json:"period2_average"`
	Count1        int     `json:"period1_count"`
	Count2        int     `json:"period2_count"`
	ChangePercent float64 `json:"change_percentage"`
	Direction     string  `json:"trend"`
	Significant   bool    `json:"significant_change"`
}

// Analyzer computes trends relative to its clock. The zero value uses
// time.Now.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an analyzer. A nil clock means time.Now.
func NewAnalyzer(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

func (a *Analyzer) clock() time.Time {
	if a == nil || a.now == nil {
		return time.Now()
	}
	return a.now()
}

// Trend keeps the points measured at or after now minus windowDays and
// classifies their direction by comparing the mean of the earlier half with
// the mean of the later half.
func (a *Analyzer) Trend(series []Point, windowDays int) (TrendResult, error) {
	since := a.clock().AddDate(0, 0, -windowDays)

	var points []Point
	for _, p := range series {
		if !p.Time.Before(since) {
			points = append(points, p)
		}
	}
	if len(points) == 0 {
		return TrendResult{}, ErrNotFound
	}
	sortByTime(points)

	result := TrendResult{
		Points:     points,
		Mean:       mean(points),
		Direction:  Stable,
		FirstScore: points[0].Score,
		LastScore:  points[len(points)-1].Score,
		Count:      len(points),
		Since:      since,
	}

	if len(points) >= 2 {
		half := len(points) / 2
		diff := mean(points[half:]) - mean(points[:half])
		switch {
		case diff > TrendThreshold:
			result.Direction = Improving
		case diff < -TrendThreshold:
			result.Direction = Declining
		}
	}

	return result, nil
}

// Compare computes the percentage change of the mean score from p1 to p2.
// Either period without points yields ErrNotFound.
func (a *Analyzer) Compare(series []Point, p1, p2 Period) (ComparisonResult, error) {
	var first, second []Point
	for _, p := range series {
		if p1.Contains(p.Time) {
			first = append(first, p)
		}
		if p2.Contains(p.Time) {
			second = append(second, p)
		}
	}
	if len(first) == 0 || len(second) == 0 {
		return ComparisonResult{}, ErrNotFound
	}

	m1, m2 := mean(first), mean(second)
	if m1 == 0 {
		return ComparisonResult{}, ErrZeroBaseline
	}
	change := (m2 - m1) / m1 * 100

	result := ComparisonResult{
		Period1:       p1,
		Period2:       p2,
		Mean1:         m1,
		Mean2:         m2,
		Count1:        len(first),
		Count2:        len(second),
		ChangePercent: change,
		Direction:     Stable,
		Significant:   math.Abs(change) > SignificanceThreshold,
	}
	switch {
	case change > ChangeThreshold:
		result.Direction = Improved
	case change < -ChangeThreshold:
		result.Direction = Declined
	}
	return result, nil
}

func sortByTime(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
}

func mean(points []Point) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Score
	}
	return sum / float64(len(points))
}
