package common

// Support levels (TEA level in the student record)
type SupportLevel string

const (
	SupportLevel1 SupportLevel = "level_1"
	SupportLevel2 SupportLevel = "level_2"
	SupportLevel3 SupportLevel = "level_3"
)

// Ordinal returns 1/2/3 for a known level and 0 when absent or unknown.
func (l SupportLevel) Ordinal() float64 {
	switch l {
	case SupportLevel1:
		return 1
	case SupportLevel2:
		return 2
	case SupportLevel3:
		return 3
	default:
		return 0
	}
}

// Assessment completion status
type CompletionStatus string

const (
	StatusNotStarted      CompletionStatus = "not_started"
	StatusInProgress      CompletionStatus = "in_progress"
	StatusCompleted       CompletionStatus = "completed"
	StatusAbandoned       CompletionStatus = "abandoned"
	StatusNeedsAssistance CompletionStatus = "needs_assistance"
)

// Engagement observed during an assessment
type EngagementLevel string

const (
	EngagementNone     EngagementLevel = "none"
	EngagementLow      EngagementLevel = "low"
	EngagementMedium   EngagementLevel = "medium"
	EngagementHigh     EngagementLevel = "high"
	EngagementVeryHigh EngagementLevel = "very_high"
)

// Score maps none..very_high onto 0..4. Unknown values score 0.
func (e EngagementLevel) Score() float64 {
	switch e {
	case EngagementLow:
		return 1
	case EngagementMedium:
		return 2
	case EngagementHigh:
		return 3
	case EngagementVeryHigh:
		return 4
	default:
		return 0
	}
}

// IsHigh reports whether the engagement counts towards a successful session.
func (e EngagementLevel) IsHigh() bool {
	return e == EngagementHigh || e == EngagementVeryHigh
}

// Perceived difficulty of an assessed activity
type DifficultyRating string

const (
	DifficultyTooEasy      DifficultyRating = "too_easy"
	DifficultySlightlyEasy DifficultyRating = "slightly_easy"
	DifficultyAppropriate  DifficultyRating = "appropriate"
	DifficultySlightlyHard DifficultyRating = "slightly_hard"
	DifficultyTooHard      DifficultyRating = "too_hard"
)

// Score maps too_easy..too_hard onto -2..+2 with appropriate at 0.
func (d DifficultyRating) Score() float64 {
	switch d {
	case DifficultyTooEasy:
		return -2
	case DifficultySlightlyEasy:
		return -1
	case DifficultySlightlyHard:
		return 1
	case DifficultyTooHard:
		return 2
	default:
		return 0
	}
}

// IsInadequate reports the extreme ratings used by progress insights.
func (d DifficultyRating) IsInadequate() bool {
	return d == DifficultyTooEasy || d == DifficultyTooHard
}

// Independence shown while performing an activity
type IndependenceLevel string

const (
	IndependenceDependent IndependenceLevel = "dependent"
	IndependenceMinimal   IndependenceLevel = "minimal"
	IndependencePartial   IndependenceLevel = "partial"
	IndependenceFull      IndependenceLevel = "full"
)

// Score maps dependent..full onto 1..4; absent scores 0.
func (i IndependenceLevel) Score() float64 {
	switch i {
	case IndependenceDependent:
		return 1
	case IndependenceMinimal:
		return 2
	case IndependencePartial:
		return 3
	case IndependenceFull:
		return 4
	default:
		return 0
	}
}

// Activity categories
type ActivityType string

const (
	ActivityCognitive     ActivityType = "cognitive"
	ActivitySocial        ActivityType = "social"
	ActivityMotor         ActivityType = "motor"
	ActivitySensory       ActivityType = "sensory"
	ActivityCommunication ActivityType = "communication"
	ActivityDailyLiving   ActivityType = "daily_living"
	ActivityAcademic      ActivityType = "academic"
)

// ActivityTypes is the closed, ordered set used for one-hot encoding.
var ActivityTypes = []ActivityType{
	ActivityCognitive,
	ActivitySocial,
	ActivityMotor,
	ActivitySensory,
	ActivityCommunication,
	ActivityDailyLiving,
	ActivityAcademic,
}

// Learning profile keys
const (
	DomainVisual       = "visual"
	DomainAuditory     = "auditory"
	DomainKinesthetic  = "kinesthetic"
	DomainVerbal       = "verbal"
	DomainLogical      = "logical"
	DomainSocial       = "social"
	DomainEmotional    = "emotional"
	AttentionSpan      = "attention_span"
	SensorySensitivity = "sensory_sensitivity"
	CommunicationLevel = "communication_level"
	SocialSkills       = "social_skills"
)

// LearningDomains in extraction order.
var LearningDomains = []string{
	DomainVisual,
	DomainAuditory,
	DomainKinesthetic,
	DomainVerbal,
	DomainLogical,
	DomainSocial,
	DomainEmotional,
}

// ProfileTraits are the non-domain learning profile scores.
var ProfileTraits = []string{
	AttentionSpan,
	SensorySensitivity,
	CommunicationLevel,
	SocialSkills,
}

// NeutralProfileScore is the midpoint of the 0-10 learning profile scale.
const NeutralProfileScore = 5.0

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvDataPath        = "DATA_PATH"
	EnvModelPath       = "MODEL_PATH"
	EnvModelVersion    = "MODEL_VERSION"
	EnvMetricsPort     = "METRICS_PORT"
	EnvRedisURL        = "REDIS_URL"
	EnvCacheTTL        = "CACHE_TTL"
	EnvTrendWindowDays = "TREND_WINDOW_DAYS"
	EnvLogLevel        = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultDataPath        = "data"
	DefaultModelPath       = "ml-models/trained"
	DefaultModelVersion    = "production"
	DefaultMetricsPort     = 8080
	DefaultCacheTTL        = "1h"
	DefaultTrendWindowDays = 90
	DefaultLogLevel        = "info"
)
