package features

import (
	"testing"

	"eduanalytics/internal/common"
	"eduanalytics/internal/models"
)

func TestExtractActivityFeatures(t *testing.T) {
	t.Parallel()

	v := ExtractActivityFeatures(models.ActivityDescriptor{
		Difficulty:        7,
		DurationMinutes:   40,
		ActivityType:      common.ActivitySensory,
		HasVisualSupports: true,
	})

	if v[ActivityDifficulty] != 7 {
		t.Errorf("expected difficulty 7, got %v", v[ActivityDifficulty])
	}
	if v[DurationMinutes] != 40 {
		t.Errorf("expected duration 40, got %v", v[DurationMinutes])
	}
	if v[HasVisualSupports] != 1 || v[HasAdaptations] != 0 {
		t.Errorf("unexpected support flags: visual=%v adaptations=%v", v[HasVisualSupports], v[HasAdaptations])
	}

	hot := 0
	for _, at := range common.ActivityTypes {
		if v[TypeFeature(at)] == 1 {
			hot++
			if at != common.ActivitySensory {
				t.Errorf("wrong type flagged: %s", at)
			}
		}
	}
	if hot != 1 {
		t.Errorf("expected exactly one type column set, got %d", hot)
	}
}

func TestExtractActivityFeatures_UnknownType(t *testing.T) {
	t.Parallel()

	v := ExtractActivityFeatures(models.ActivityDescriptor{ActivityType: "painting"})
	for _, at := range common.ActivityTypes {
		if v[TypeFeature(at)] != 0 {
			t.Errorf("expected %s to be 0 for unknown type", TypeFeature(at))
		}
	}
}

func TestVector_Ordered(t *testing.T) {
	t.Parallel()

	v := Vector{"b": 2, "a": 1}
	got := v.Ordered([]string{"a", "missing", "b"})
	want := []float64{1, 0, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if names := v.Names(); names[0] != "a" || names[1] != "b" {
		t.Errorf("expected sorted names, got %v", names)
	}
	if v.NonZero() != 2 {
		t.Errorf("expected 2 non-zero features, got %d", v.NonZero())
	}
}
