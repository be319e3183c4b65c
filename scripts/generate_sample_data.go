package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"time"

	"eduanalytics/internal/common"
	"eduanalytics/internal/models"
	"eduanalytics/internal/storage"

	"github.com/rs/zerolog/log"
)

var (
	completionStatuses = []common.CompletionStatus{
		common.StatusCompleted,
		common.StatusInProgress,
		common.StatusAbandoned,
		common.StatusNeedsAssistance,
	}
	engagementLevels = []common.EngagementLevel{
		common.EngagementNone,
		common.EngagementLow,
		common.EngagementMedium,
		common.EngagementHigh,
		common.EngagementVeryHigh,
	}
	difficultyRatings = []common.DifficultyRating{
		common.DifficultyTooEasy,
		common.DifficultySlightlyEasy,
		common.DifficultyAppropriate,
		common.DifficultySlightlyHard,
		common.DifficultyTooHard,
	}
	independenceLevels = []common.IndependenceLevel{
		common.IndependenceDependent,
		common.IndependenceMinimal,
		common.IndependencePartial,
		common.IndependenceFull,
	}
	supportLevels = []common.SupportLevel{
		common.SupportLevel1,
		common.SupportLevel2,
		common.SupportLevel3,
	}
	contexts = []models.MeasurementContext{
		models.ContextClassroom,
		models.ContextRecess,
		models.ContextTherapySession,
		models.ContextGroupActivity,
		models.ContextTransition,
	}
)

func main() {
	var (
		dataPath = flag.String("data", common.DefaultDataPath, "Data directory path")
		students = flag.Int("students", 10, "Number of students to generate")
		days     = flag.Int("days", 120, "Days of history per student")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	if *students <= 0 || *days <= 0 {
		log.Fatal().Int("students", *students).Int("days", *days).Msg("students and days must be positive")
	}

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage")
	}
	defer store.Close()

	rng := rand.New(rand.NewSource(*seed))
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -*days)

	for i := 0; i < *students; i++ {
		if err := generateStudent(store, rng, i, start, end); err != nil {
			log.Fatal().Err(err).Int("student", i).Msg("Failed to generate data")
		}
	}

	fmt.Printf("✓ Generated sample data for %d students in %s\n", *students, *dataPath)
}

// generateStudent writes one profile plus a weekly assessment and indicator
// history. Each student drifts toward or away from support need at a random
// rate so trend and risk outputs vary across the cohort.
func generateStudent(store *storage.Store, rng *rand.Rand, n int, start, end time.Time) error {
	profile := models.StudentProfile{
		Name:            fmt.Sprintf("Student %02d", n+1),
		Age:             5 + rng.Intn(13),
		SupportLevel:    supportLevels[rng.Intn(len(supportLevels))],
		Interests:       []string{"music", "drawing", "puzzles", "animals", "games"}[:1+rng.Intn(4)],
		LearningProfile: make(map[string]float64),
		CreatedAt:       start,
	}
	for _, key := range append(append([]string{}, common.LearningDomains...), common.ProfileTraits...) {
		profile.LearningProfile[key] = math.Round(boundedNormal(rng, 5, 2, 0, 10)*10) / 10
	}

	profile, err := store.PutStudent(profile)
	if err != nil {
		return fmt.Errorf("failed to store student: %w", err)
	}

	// Positive drift means the student is improving over the period.
	drift := rng.NormFloat64() * 0.5
	ability := 0.3 + rng.Float64()*0.4
	assessments, measurements := 0, 0

	for ts := start; ts.Before(end); ts = ts.Add(7 * 24 * time.Hour) {
		progress := ts.Sub(start).Hours() / end.Sub(start).Hours()
		p := math.Min(math.Max(ability+drift*progress*0.3, 0.05), 0.95)

		record := models.AssessmentRecord{
			StudentID:         profile.ID,
			CompletionStatus:  pickStatus(rng, p),
			EngagementLevel:   engagementLevels[levelIndex(rng, p, len(engagementLevels))],
			DifficultyRating:  difficultyRatings[rng.Intn(len(difficultyRatings))],
			IndependenceLevel: independenceLevels[levelIndex(rng, p, len(independenceLevels))],
			CreatedAt:         ts.Add(time.Duration(rng.Intn(8*60)) * time.Minute),
		}
		if _, err := store.PutAssessment(record); err != nil {
			return fmt.Errorf("failed to store assessment: %w", err)
		}
		assessments++

		for _, indicator := range models.IndicatorTypes {
			if rng.Float64() < 0.5 {
				continue
			}
			mean := 1 + 9*p
			if !indicator.Positive() {
				mean = 11 - mean
			}
			m := models.IndicatorMeasurement{
				StudentID:     profile.ID,
				IndicatorType: indicator,
				Context:       contexts[rng.Intn(len(contexts))],
				Score:         math.Round(boundedNormal(rng, mean, 1.2, 1, 10)),
				MeasuredAt:    ts.Add(time.Duration(rng.Intn(5*24)) * time.Hour),
			}
			if _, err := store.PutIndicator(m); err != nil {
				return fmt.Errorf("failed to store indicator: %w", err)
			}
			measurements++
		}
	}

	fmt.Printf("  %s (%s): %d assessments, %d indicator measurements, drift %+.2f\n",
		profile.Name, profile.ID, assessments, measurements, drift)
	return nil
}

func pickStatus(rng *rand.Rand, p float64) common.CompletionStatus {
	if rng.Float64() < p {
		return common.StatusCompleted
	}
	return completionStatuses[1+rng.Intn(len(completionStatuses)-1)]
}

// levelIndex picks an ordinal level centered on p scaled to [0, n).
func levelIndex(rng *rand.Rand, p float64, n int) int {
	return int(math.Round(boundedNormal(rng, p*float64(n-1), 0.8, 0, float64(n-1))))
}

func boundedNormal(rng *rand.Rand, mean, stddev, lo, hi float64) float64 {
	v := mean + rng.NormFloat64()*stddev
	return math.Min(math.Max(v, lo), hi)
}
