package squeeze

import "math"

// Scoring constants. These are fixed by the model, not configurable:
// the composite is meant to be comparable across strategy revisions.
const (
	// Short-percent-of-float component: linear 0..40 over 0%..50%.
	shortPctSpan = 0.50
	shortPctMax  = 40.0

	// Days-to-cover component: linear 0..30 over 0..10 days.
	daysToCoverSpan = 10.0
	daysToCoverMax  = 30.0

	// Insider-impact component: linear 0..30 as insider buying
	// approaches 1% of the dollar value currently held short.
	impactRatioSpan = 0.01
	impactMax       = 30.0

	// HighPotentialMin is the exact score threshold; no hysteresis.
	HighPotentialMin = 70.0
)

// Score computes the 0-100 short-squeeze composite from raw metrics.
// Each component caps independently; a missing input zeroes only its
// own component. shortPctFloat is mandatory: without it the score is 0
// and highPotential is false.
func Score(shortPctFloat, daysToCover, insiderValue, marketCap float64) (float64, bool) {
	if shortPctFloat <= 0 {
		return 0, false
	}

	score := math.Min(shortPctMax, shortPctFloat/shortPctSpan*shortPctMax)

	if daysToCover > 0 {
		score += math.Min(daysToCoverMax, daysToCover/daysToCoverSpan*daysToCoverMax)
	}

	if insiderValue > 0 && marketCap > 0 {
		shortValue := marketCap * shortPctFloat
		ratio := insiderValue / shortValue
		score += math.Min(impactMax, ratio/impactRatioSpan*impactMax)
	}

	if score > 100 {
		score = 100
	}

	return score, score >= HighPotentialMin
}

// AdjustConviction applies the flat short-interest conviction bumps:
// +1.0 at >=20% float short (+0.5 at >=10%), with an extra +0.5 when
// short interest is >=30% and days-to-cover is >=7. Below 10% the base
// passes through untouched. Additive, fixed thresholds.
func AdjustConviction(base, shortPctFloat, daysToCover float64) (float64, string) {
	adjusted := base
	reason := ""

	switch {
	case shortPctFloat >= 0.20:
		adjusted += 1.0
		reason = "high short interest"
	case shortPctFloat >= 0.10:
		adjusted += 0.5
		reason = "elevated short interest"
	default:
		return adjusted, reason
	}

	if shortPctFloat >= 0.30 && daysToCover >= 7 {
		adjusted += 0.5
		reason = "extreme short interest with high days-to-cover"
	}

	return adjusted, reason
}

// ShortLevel buckets a short-percent-of-float reading for reporting.
func ShortLevel(shortPctFloat float64) string {
	switch {
	case shortPctFloat >= 0.30:
		return "extreme"
	case shortPctFloat >= 0.20:
		return "high"
	case shortPctFloat >= 0.10:
		return "elevated"
	default:
		return "low"
	}
}
