// internal/domain/trend/scoring.go

package trend

import (
	"math"
)

const (
	// DefaultHalfLife is the age in hours at which a post counts half
	DefaultHalfLife = 12.0

	// DefaultTopN is how many trends are kept per ranking
	DefaultTopN = 10

	// EngagementBase scales a normalized score into a 24h engagement forecast
	EngagementBase = 50_000_000

	engagementExponent = 1.2

	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// DecayWeight returns the multiplier for a post that is hoursAgo old.
// Negative ages are not clamped, so future-dated posts weigh more than 1.
func DecayWeight(hoursAgo, halfLife float64) float64 {
	if halfLife <= 0 {
		halfLife = DefaultHalfLife
	}
	return math.Exp(-math.Ln2 * hoursAgo / halfLife)
}

// Normalize rescales raw scores into [0,1] by dividing by the maximum.
// An all-zero input maps every key to 0. Non-finite scores are ignored when
// taking the maximum and map to 0.
func Normalize(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(raw))
	if len(raw) == 0 {
		return out
	}

	maxScore := 0.0
	for _, v := range raw {
		if isFinite(v) && v > maxScore {
			maxScore = v
		}
	}

	for k, v := range raw {
		if maxScore == 0 || !isFinite(v) {
			out[k] = 0
			continue
		}
		out[k] = v / maxScore
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Categorize maps a score to HIGH, MEDIUM or LOW
func Categorize(score float64) Category {
	switch {
	case score >= highThreshold:
		return CategoryHigh
	case score >= mediumThreshold:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

// PredictEngagement projects the next 24h engagement for a score.
// Halves round to even.
func PredictEngagement(score float64) int64 {
	if score <= 0 || math.IsNaN(score) {
		return 0
	}
	return int64(math.RoundToEven(EngagementBase * math.Pow(score, engagementExponent)))
}
