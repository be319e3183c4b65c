package models

import "time"

// IndicatorType enumerates the socio-emotional indicators tracked per student.
type IndicatorType string

const (
	EmotionalRegulation  IndicatorType = "emotional_regulation"
	SocialInteraction    IndicatorType = "social_interaction"
	CommunicationSkills  IndicatorType = "communication_skills"
	AdaptiveBehavior     IndicatorType = "adaptive_behavior"
	SensoryProcessing    IndicatorType = "sensory_processing"
	AttentionFocus       IndicatorType = "attention_focus"
	AnxietyLevel         IndicatorType = "anxiety_level"
	FrustrationTolerance IndicatorType = "frustration_tolerance"
	SelfRegulation       IndicatorType = "self_regulation"
	PeerRelationship     IndicatorType = "peer_relationship"
	ExecutiveFunction    IndicatorType = "executive_function"
	Flexibility          IndicatorType = "flexibility"
)

// IndicatorTypes lists every indicator in declaration order.
var IndicatorTypes = []IndicatorType{
	EmotionalRegulation,
	SocialInteraction,
	CommunicationSkills,
	AdaptiveBehavior,
	SensoryProcessing,
	AttentionFocus,
	AnxietyLevel,
	FrustrationTolerance,
	SelfRegulation,
	PeerRelationship,
	ExecutiveFunction,
	Flexibility,
}

var indicatorNames = map[IndicatorType]string{
	EmotionalRegulation:  "Emotional regulation",
	SocialInteraction:    "Social interaction",
	CommunicationSkills:  "Communication skills",
	AdaptiveBehavior:     "Adaptive behavior",
	SensoryProcessing:    "Sensory processing",
	AttentionFocus:       "Attention and focus",
	AnxietyLevel:         "Anxiety level",
	FrustrationTolerance: "Frustration tolerance",
	SelfRegulation:       "Self-regulation",
	PeerRelationship:     "Peer relationship",
	ExecutiveFunction:    "Executive function",
	Flexibility:          "Flexibility",
}

// higher scores are better for these; the rest are concerning when high
var positiveIndicators = map[IndicatorType]bool{
	EmotionalRegulation:  true,
	SocialInteraction:    true,
	CommunicationSkills:  true,
	AdaptiveBehavior:     true,
	AttentionFocus:       true,
	FrustrationTolerance: true,
	SelfRegulation:       true,
	PeerRelationship:     true,
	Flexibility:          true,
}

// Valid reports whether t is a known indicator.
func (t IndicatorType) Valid() bool {
	_, ok := indicatorNames[t]
	return ok
}

// DisplayName returns the human readable indicator name.
func (t IndicatorType) DisplayName() string {
	if name, ok := indicatorNames[t]; ok {
		return name
	}
	return string(t)
}

// Positive reports whether a high score is desirable.
func (t IndicatorType) Positive() bool {
	return positiveIndicators[t]
}

// MeasurementContext is where an indicator was observed.
type MeasurementContext string

const (
	ContextClassroom          MeasurementContext = "classroom"
	ContextRecess             MeasurementContext = "recess"
	ContextTherapySession     MeasurementContext = "therapy_session"
	ContextGroupActivity      MeasurementContext = "group_activity"
	ContextIndividualActivity MeasurementContext = "individual_activity"
	ContextTransition         MeasurementContext = "transition"
	ContextStructuredTask     MeasurementContext = "structured_task"
	ContextUnstructuredTime   MeasurementContext = "unstructured_time"
	ContextHome               MeasurementContext = "home"
	ContextOther              MeasurementContext = "other"
)

// IndicatorMeasurement is a single 1-10 score for one indicator.
type IndicatorMeasurement struct {
	ID            string             `json:"id"`
	StudentID     string             `json:"student_id" validate:"required"`
	IndicatorType IndicatorType      `json:"indicator_type" validate:"required,indicator_type"`
	Context       MeasurementContext `json:"context,omitempty"`
	Score         float64            `json:"score" validate:"gte=1,lte=10"`
	Observations  string             `json:"observations,omitempty"`
	MeasuredAt    time.Time          `json:"measured_at" validate:"required"`
}

// ScoreLevel buckets the score into a qualitative level.
func (m IndicatorMeasurement) ScoreLevel() string {
	switch {
	case m.Score <= 2:
		return "very_low"
	case m.Score <= 4:
		return "low"
	case m.Score <= 6:
		return "moderate"
	case m.Score <= 8:
		return "high"
	default:
		return "very_high"
	}
}

// Concerning flags low scores on positive indicators and high scores on the
// others.
func (m IndicatorMeasurement) Concerning() bool {
	if m.IndicatorType.Positive() {
		return m.Score <= 4
	}
	return m.Score >= 7
}
