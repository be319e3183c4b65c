package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"eduanalytics/internal/common"
	"eduanalytics/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	if _, err := os.Stat(filepath.Join(tempDir, DBFile)); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_InvalidPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does", "not", "exist")

	if _, err := New(missing); err == nil {
		t.Error("Expected error for missing directory, got nil")
	}
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{db: nil}
	if err := store.Close(); err != nil {
		t.Errorf("Expected no error for nil db, got: %v", err)
	}
}

func TestStudentRoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.PutStudent(models.StudentProfile{
		Name:            "Ana",
		Age:             9,
		SupportLevel:    common.SupportLevel2,
		Interests:       []string{"trains"},
		LearningProfile: map[string]float64{common.DomainVisual: 8},
	})
	if err != nil {
		t.Fatalf("PutStudent: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("expected created_at to be assigned")
	}

	got, err := store.GetStudent(saved.ID)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if got.Name != "Ana" || got.SupportLevel != common.SupportLevel2 || got.LearningProfile[common.DomainVisual] != 8 {
		t.Errorf("unexpected student: %+v", got)
	}

	if _, err := store.GetStudent("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := store.PutStudent(models.StudentProfile{ID: "fixed", Age: 7}); err != nil {
		t.Fatalf("PutStudent: %v", err)
	}
	all, err := store.ListStudents()
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 students, got %d", len(all))
	}
}

func TestAssessmentsOrderedPerStudent(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	for _, offset := range []int{3, 1, 2} {
		_, err := store.PutAssessment(models.AssessmentRecord{
			StudentID:        "s1",
			CompletionStatus: common.StatusCompleted,
			EngagementLevel:  common.EngagementHigh,
			DifficultyRating: common.DifficultyAppropriate,
			CreatedAt:        base.Add(time.Duration(offset) * time.Hour),
		})
		if err != nil {
			t.Fatalf("PutAssessment: %v", err)
		}
	}
	// same timestamp for another student must not collide or leak
	if _, err := store.PutAssessment(models.AssessmentRecord{StudentID: "s10", CreatedAt: base.Add(time.Hour)}); err != nil {
		t.Fatalf("PutAssessment: %v", err)
	}

	got, err := store.ListAssessments("s1")
	if err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 assessments, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Errorf("assessments not in chronological order: %v before %v", got[i-1].CreatedAt, got[i].CreatedAt)
		}
	}
	if got[0].ID == "" {
		t.Error("expected an id to be assigned")
	}

	none, err := store.ListAssessments("unknown")
	if err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no assessments, got %d", len(none))
	}
}

func TestListIndicatorsFilter(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	measurements := []models.IndicatorMeasurement{
		{StudentID: "s1", IndicatorType: models.AnxietyLevel, Score: 7, MeasuredAt: base},
		{StudentID: "s1", IndicatorType: models.SocialInteraction, Score: 5, MeasuredAt: base},
		{StudentID: "s1", IndicatorType: models.AnxietyLevel, Score: 4, MeasuredAt: base.AddDate(0, 0, 10)},
		{StudentID: "s2", IndicatorType: models.AnxietyLevel, Score: 2, MeasuredAt: base},
	}
	for _, m := range measurements {
		if _, err := store.PutIndicator(m); err != nil {
			t.Fatalf("PutIndicator: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter IndicatorFilter
		want   int
	}{
		{"student", IndicatorFilter{StudentID: "s1"}, 3},
		{"student and type", IndicatorFilter{StudentID: "s1", Type: models.AnxietyLevel}, 2},
		{"inclusive range", IndicatorFilter{StudentID: "s1", From: base, To: base}, 2},
		{"from only", IndicatorFilter{StudentID: "s1", From: base.AddDate(0, 0, 1)}, 1},
		{"all students by type", IndicatorFilter{Type: models.AnxietyLevel}, 3},
		{"everything", IndicatorFilter{}, 4},
	}

	for _, tt := range tests {
		got, err := store.ListIndicators(tt.filter)
		if err != nil {
			t.Fatalf("%s: ListIndicators: %v", tt.name, err)
		}
		if len(got) != tt.want {
			t.Errorf("%s: got %d measurements, want %d", tt.name, len(got), tt.want)
		}
	}
}

func TestStudentScansIgnoreIDsSharingAPrefix(t *testing.T) {
	store := newTestStore(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"s1_b", "s1"} {
		if _, err := store.PutAssessment(models.AssessmentRecord{StudentID: id, CreatedAt: at}); err != nil {
			t.Fatalf("PutAssessment: %v", err)
		}
		m := models.IndicatorMeasurement{StudentID: id, IndicatorType: models.Flexibility, Score: 6, MeasuredAt: at}
		if _, err := store.PutIndicator(m); err != nil {
			t.Fatalf("PutIndicator: %v", err)
		}
	}
	if _, err := store.PutAssessment(models.AssessmentRecord{StudentID: "s1_b", CreatedAt: at.Add(time.Hour)}); err != nil {
		t.Fatalf("PutAssessment: %v", err)
	}

	assessments, err := store.ListAssessments("s1")
	if err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if len(assessments) != 1 || assessments[0].StudentID != "s1" {
		t.Errorf("ListAssessments(s1) returned %+v, want only s1's record", assessments)
	}

	indicators, err := store.ListIndicators(IndicatorFilter{StudentID: "s1"})
	if err != nil {
		t.Fatalf("ListIndicators: %v", err)
	}
	if len(indicators) != 1 || indicators[0].StudentID != "s1" {
		t.Errorf("ListIndicators(s1) returned %+v, want only s1's measurement", indicators)
	}

	other, err := store.ListAssessments("s1_b")
	if err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if len(other) != 2 {
		t.Errorf("expected 2 assessments for s1_b, got %d", len(other))
	}
}
