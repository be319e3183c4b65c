// Package models holds the value types the analytics engine reads. Records are
// owned by the calling application; the engine never mutates them.
package models

import (
	"time"

	"eduanalytics/internal/common"
)

// StudentProfile is the learner record used for feature extraction.
type StudentProfile struct {
	ID           string              `json:"id"`
	Name         string              `json:"name,omitempty"`
	Age          int                 `json:"age" validate:"gte=0,lte=120"`
	SupportLevel common.SupportLevel `json:"support_level,omitempty" validate:"omitempty,oneof=level_1 level_2 level_3"`
	Interests    []string            `json:"interests,omitempty"`
	// LearningProfile maps domain and trait names to 0-10 scores. Nil means
	// the profile was never filled in.
	LearningProfile map[string]float64 `json:"learning_profile,omitempty" validate:"omitempty,dive,gte=0,lte=10"`
	CreatedAt       time.Time          `json:"created_at"`
}

// AssessmentRecord is one observed activity session.
type AssessmentRecord struct {
	ID                string                   `json:"id"`
	StudentID         string                   `json:"student_id" validate:"required"`
	CompletionStatus  common.CompletionStatus  `json:"completion_status" validate:"required,oneof=not_started in_progress completed abandoned needs_assistance"`
	EngagementLevel   common.EngagementLevel   `json:"engagement_level" validate:"required,oneof=none low medium high very_high"`
	DifficultyRating  common.DifficultyRating  `json:"difficulty_rating" validate:"required,oneof=too_easy slightly_easy appropriate slightly_hard too_hard"`
	IndependenceLevel common.IndependenceLevel `json:"independence_level,omitempty" validate:"omitempty,oneof=dependent minimal partial full"`
	CreatedAt         time.Time                `json:"created_at"`
}

// Completed reports whether the session finished.
func (a AssessmentRecord) Completed() bool {
	return a.CompletionStatus == common.StatusCompleted
}

// Successful reports a completed session with high engagement.
func (a AssessmentRecord) Successful() bool {
	return a.Completed() && a.EngagementLevel.IsHigh()
}

// ActivityDescriptor describes an activity whose success is being estimated.
type ActivityDescriptor struct {
	Difficulty        float64             `json:"difficulty" validate:"gte=0,lte=10"`
	DurationMinutes   float64             `json:"duration_minutes" validate:"gte=0"`
	ActivityType      common.ActivityType `json:"activity_type" validate:"omitempty,oneof=cognitive social motor sensory communication daily_living academic"`
	HasAdaptations    bool                `json:"has_adaptations"`
	HasVisualSupports bool                `json:"has_visual_supports"`
}
