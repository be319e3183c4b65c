package features

import (
	"eduanalytics/internal/common"
	"eduanalytics/internal/models"
)

// Feature names emitted by ExtractActivityFeatures.
const (
	ActivityDifficulty = "activity_difficulty"
	DurationMinutes    = "duration_minutes"
	HasAdaptations     = "has_adaptations"
	HasVisualSupports  = "has_visual_supports"
)

// TypeFeature returns the one-hot column name for an activity type.
func TypeFeature(t common.ActivityType) string {
	return "type_" + string(t)
}

// ExtractActivityFeatures builds the activity feature vector. Unknown activity
// types leave every one-hot column at 0.
func ExtractActivityFeatures(activity models.ActivityDescriptor) Vector {
	v := make(Vector, len(common.ActivityTypes)+4)

	v[ActivityDifficulty] = activity.Difficulty
	v[DurationMinutes] = activity.DurationMinutes

	for _, t := range common.ActivityTypes {
		v[TypeFeature(t)] = boolFeature(activity.ActivityType == t)
	}

	v[HasAdaptations] = boolFeature(activity.HasAdaptations)
	v[HasVisualSupports] = boolFeature(activity.HasVisualSupports)
	return v
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
