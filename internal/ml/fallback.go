package ml

import (
	"math"

	"eduanalytics/internal/features"
)

// Rule-based risk scoring constants. These reproduce the heuristic contract
// exactly; changing any of them changes classifications.
const (
	riskBaseScore = 50.0
	riskMinScore  = 0.0
	riskMaxScore  = 100.0

	riskLowBelow    = 25.0
	riskMediumBelow = 50.0
	riskHighBelow   = 75.0

	ruleConfidenceBase    = 0.4
	ruleConfidenceDivisor = 40.0
	ruleConfidenceCap     = 0.7
)

// Rule-based success estimation constants.
const (
	successBase             = 0.5
	successCompletionWeight = 0.3
	successEngagementWeight = 0.2
	successTooHardPenalty   = 0.15
	successEasyBonus        = 0.05
	successSupportBonus     = 0.05
)

// RuleBasedRisk scores risk with a closed-form heuristic. It is stateless and
// safe for concurrent use.
type RuleBasedRisk struct{}

// NewRuleBasedRisk creates the fallback risk strategy
func NewRuleBasedRisk() *RuleBasedRisk {
	return &RuleBasedRisk{}
}

func (*RuleBasedRisk) Method() string { return MethodRuleBased }

// Classify implements RiskStrategy.
func (*RuleBasedRisk) Classify(v features.Vector) (RiskPrediction, error) {
	score := RiskScore(v)
	return RiskPrediction{
		Category:   CategoryForScore(score),
		Confidence: RuleConfidence(v),
		RiskScore:  &score,
		Method:     MethodRuleBased,
	}, nil
}

// RiskScore computes the clamped 0-100 heuristic risk score.
func RiskScore(v features.Vector) float64 {
	score := riskBaseScore

	switch completion := v.Get(features.CompletionRate, 0.5); {
	case completion < 0.3:
		score += 20
	case completion < 0.5:
		score += 10
	case completion > 0.8:
		score -= 10
	}

	switch engagement := v.Get(features.AvgEngagement, 2.0); {
	case engagement < 1.5:
		score += 15
	case engagement > 3.0:
		score -= 10
	}

	switch independence := v.Get(features.AvgIndependence, 2.0); {
	case independence < 1.5:
		score += 10
	case independence > 3.0:
		score -= 10
	}

	switch success := v.Get(features.SuccessRate, 0.5); {
	case success < 0.2:
		score += 15
	case success > 0.7:
		score -= 15
	}

	switch v.Get(features.SupportLevel, 0) {
	case 3:
		score += 10
	case 1:
		score -= 5
	}

	return clamp(score, riskMinScore, riskMaxScore)
}

// CategoryForScore maps a 0-100 score onto the ordered risk categories.
func CategoryForScore(score float64) RiskCategory {
	switch {
	case score < riskLowBelow:
		return RiskLow
	case score < riskMediumBelow:
		return RiskMedium
	case score < riskHighBelow:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// RuleConfidence grows with the number of informative features and is capped
// below what the model path can reach.
func RuleConfidence(v features.Vector) float64 {
	return math.Min(ruleConfidenceCap, ruleConfidenceBase+float64(v.NonZero())/ruleConfidenceDivisor)
}

// RuleBasedSuccess estimates success probability with fixed adjustments.
type RuleBasedSuccess struct{}

// NewRuleBasedSuccess creates the fallback success strategy
func NewRuleBasedSuccess() *RuleBasedSuccess {
	return &RuleBasedSuccess{}
}

func (*RuleBasedSuccess) Method() string { return MethodRuleBased }

// Estimate implements SuccessStrategy.
func (*RuleBasedSuccess) Estimate(student, activity features.Vector) (float64, error) {
	return SuccessProbability(student, activity), nil
}

// SuccessProbability computes the clamped heuristic success probability.
func SuccessProbability(student, activity features.Vector) float64 {
	p := successBase

	p += (student.Get(features.CompletionRate, 0.5) - 0.5) * successCompletionWeight
	p += (student.Get(features.AvgEngagement, 2.0) - 2.0) / 4.0 * successEngagementWeight

	difficulty := activity.Get(features.ActivityDifficulty, 5)
	independence := student.Get(features.AvgIndependence, 2.0)
	if difficulty > 7 && independence < 2 {
		p -= successTooHardPenalty
	} else if difficulty < 3 && independence > 3 {
		p += successEasyBonus
	}

	if activity.Get(features.HasVisualSupports, 0) > 0 {
		p += successSupportBonus
	}
	if activity.Get(features.HasAdaptations, 0) > 0 {
		p += successSupportBonus
	}

	return clamp(p, 0, 1)
}
