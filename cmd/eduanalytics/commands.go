package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"eduanalytics/internal/common"
	"eduanalytics/internal/ml"
	"eduanalytics/internal/models"
	"eduanalytics/internal/trend"
)

var errUnknownCommand = errors.New("unknown command")

const dateLayout = "2006-01-02"

func (a *app) run(ctx context.Context, command string, args []string) error {
	err := a.dispatch(ctx, command, args)
	if err != nil {
		a.metrics.ErrorsInc()
	}
	return err
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "import":
		return a.runImport(ctx, args)
	case "risk":
		return a.runRisk(ctx, args)
	case "success":
		return a.runSuccess(ctx, args)
	case "progress":
		return a.runProgress(ctx, args)
	case "trend":
		return a.runTrend(ctx, args)
	case "compare":
		return a.runCompare(ctx, args)
	case "profile":
		return a.runProfile(ctx, args)
	case "models":
		return a.runModels(args)
	case "serve":
		return a.runServe(ctx, args)
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, command)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func requireStudent(id string) error {
	if id == "" {
		return errors.New("-student is required")
	}
	return nil
}

// Dataset is the document accepted by the import command.
type Dataset struct {
	Students    []models.StudentProfile       `json:"students"`
	Assessments []models.AssessmentRecord     `json:"assessments"`
	Indicators  []models.IndicatorMeasurement `json:"indicators"`
}

// ImportSummary reports how many records of each kind were stored.
type ImportSummary struct {
	Students    int      `json:"students"`
	Assessments int      `json:"assessments"`
	Indicators  int      `json:"indicators"`
	StudentIDs  []string `json:"student_ids"`
}

func decodeDataset(r io.Reader) (Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, nil
}

func (a *app) runImport(ctx context.Context, args []string) error {
	fs := newFlagSet("import")
	file := fs.String("file", "", "JSON dataset to import (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if *file != "" && *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	ds, err := decodeDataset(in)
	if err != nil {
		return err
	}

	// students first so that the other records can reference them
	summary := ImportSummary{StudentIDs: []string{}}
	for _, s := range ds.Students {
		saved, err := a.service.RecordStudent(ctx, s)
		if err != nil {
			return fmt.Errorf("student %q: %w", s.Name, err)
		}
		summary.Students++
		summary.StudentIDs = append(summary.StudentIDs, saved.ID)
	}
	for i, rec := range ds.Assessments {
		if _, err := a.service.RecordAssessment(ctx, rec); err != nil {
			return fmt.Errorf("assessment %d: %w", i, err)
		}
		summary.Assessments++
	}
	for i, m := range ds.Indicators {
		if _, err := a.service.RecordIndicator(ctx, m); err != nil {
			return fmt.Errorf("indicator %d: %w", i, err)
		}
		summary.Indicators++
	}

	log.Info().
		Int("students", summary.Students).
		Int("assessments", summary.Assessments).
		Int("indicators", summary.Indicators).
		Msg("Import complete")
	return a.emit(summary)
}

func (a *app) runRisk(ctx context.Context, args []string) error {
	fs := newFlagSet("risk")
	student := fs.String("student", "", "Student id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireStudent(*student); err != nil {
		return err
	}

	prediction, err := a.service.PredictRisk(ctx, *student)
	if err != nil {
		return err
	}
	return a.emit(prediction)
}

func (a *app) runSuccess(ctx context.Context, args []string) error {
	fs := newFlagSet("success")
	var (
		student     = fs.String("student", "", "Student id")
		difficulty  = fs.Float64("difficulty", 5, "Activity difficulty (0-10)")
		duration    = fs.Float64("duration", 30, "Activity duration in minutes")
		kind        = fs.String("type", "", "Activity type: "+activityTypeList())
		adaptations = fs.Bool("adaptations", false, "Activity has adaptations")
		visual      = fs.Bool("visual", false, "Activity has visual supports")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireStudent(*student); err != nil {
		return err
	}

	prediction, err := a.service.PredictSuccess(ctx, *student, models.ActivityDescriptor{
		Difficulty:        *difficulty,
		DurationMinutes:   *duration,
		ActivityType:      common.ActivityType(*kind),
		HasAdaptations:    *adaptations,
		HasVisualSupports: *visual,
	})
	if err != nil {
		return err
	}
	return a.emit(prediction)
}

func activityTypeList() string {
	names := make([]string, len(common.ActivityTypes))
	for i, t := range common.ActivityTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func (a *app) runProgress(ctx context.Context, args []string) error {
	fs := newFlagSet("progress")
	student := fs.String("student", "", "Student id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireStudent(*student); err != nil {
		return err
	}

	analysis, err := a.service.AnalyzeProgress(ctx, *student)
	if err != nil {
		return err
	}
	return a.emit(analysis)
}

func (a *app) runTrend(ctx context.Context, args []string) error {
	fs := newFlagSet("trend")
	var (
		student   = fs.String("student", "", "Student id")
		indicator = fs.String("indicator", "", "Indicator type, e.g. anxiety_level")
		days      = fs.Int("days", a.settings.TrendWindowDays, "Trailing window in days")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireStudent(*student); err != nil {
		return err
	}

	result, err := a.service.IndicatorTrend(ctx, *student, models.IndicatorType(*indicator), *days)
	if err != nil {
		return err
	}
	return a.emit(result)
}

// parsePeriod parses "YYYY-MM-DD:YYYY-MM-DD". The end date covers the whole
// day.
func parsePeriod(s string) (trend.Period, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return trend.Period{}, fmt.Errorf("period %q must look like 2024-01-01:2024-01-31", s)
	}
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return trend.Period{}, fmt.Errorf("period start: %w", err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return trend.Period{}, fmt.Errorf("period end: %w", err)
	}
	return trend.Period{Start: start, End: end.Add(24*time.Hour - time.Nanosecond)}, nil
}

func (a *app) runCompare(ctx context.Context, args []string) error {
	fs := newFlagSet("compare")
	var (
		student   = fs.String("student", "", "Student id")
		indicator = fs.String("indicator", "", "Indicator type, e.g. social_interaction")
		first     = fs.String("p1", "", "First period, YYYY-MM-DD:YYYY-MM-DD")
		second    = fs.String("p2", "", "Second period, YYYY-MM-DD:YYYY-MM-DD")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireStudent(*student); err != nil {
		return err
	}

	p1, err := parsePeriod(*first)
	if err != nil {
		return err
	}
	p2, err := parsePeriod(*second)
	if err != nil {
		return err
	}

	result, err := a.service.CompareIndicator(ctx, *student, models.IndicatorType(*indicator), p1, p2)
	if err != nil {
		return err
	}
	return a.emit(result)
}

func (a *app) runProfile(ctx context.Context, args []string) error {
	fs := newFlagSet("profile")
	student := fs.String("student", "", "Student id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireStudent(*student); err != nil {
		return err
	}

	profile, err := a.service.Profile(ctx, *student)
	if err != nil {
		return err
	}
	return a.emit(profile)
}

// ModelsReport lists the available model versions and the loaded strategies.
type ModelsReport struct {
	Status            ml.Status                    `json:"status"`
	Versions          map[string][]ml.ModelVersion `json:"versions"`
	FeatureImportance []ml.FeatureWeight           `json:"feature_importance"`
}

func (a *app) runModels(args []string) error {
	fs := newFlagSet("models")
	if err := fs.Parse(args); err != nil {
		return err
	}

	manager := a.engine.Manager()
	if manager == nil {
		manager = ml.NewModelManager(a.settings.ModelPath)
	}

	report := ModelsReport{
		Status:            a.engine.Status(),
		Versions:          map[string][]ml.ModelVersion{},
		FeatureImportance: a.engine.FeatureImportance(),
	}
	for _, kind := range []string{ml.ModelKindRisk, ml.ModelKindSuccess} {
		versions, err := manager.ListVersions(kind)
		if err != nil {
			return err
		}
		report.Versions[kind] = versions
	}
	return a.emit(report)
}
