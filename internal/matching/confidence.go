package matching

import "math"

// Event levels that mark an established, federation-graded event.
const (
	EventLevelRegional = "Régional"
	EventLevelNational = "National"
)

// CalculateAdjustedConfidence computes the confidence of an update-style
// proposal against an already-identified target event. Small bonuses
// reward corroborating evidence; a weak match drags the whole result
// down multiplicatively. Rounded to 2 decimals.
func CalculateAdjustedConfidence(base float64, match EventMatchResult, hasOrganizerInfo bool, raceCount int) float64 {
	confidence := base
	if match.Type == MatchTypeExact {
		confidence = capAtOne(confidence + 0.05)
	}
	if hasOrganizerInfo {
		confidence = capAtOne(confidence + 0.02)
	}
	if raceCount > 1 {
		confidence = capAtOne(confidence + 0.01)
	}
	if match.Confidence < 0.8 {
		confidence *= match.Confidence
	}
	return round2(confidence)
}

// CalculateNewEventConfidence computes the confidence of a "this is a
// new entity" proposal. The logic is intentionally inverted: the
// stronger the rejected match, the less confident the system should be
// that the record is genuinely new. Rounded to 2 decimals.
func CalculateNewEventConfidence(base float64, match EventMatchResult, hasOrganizerInfo bool, raceCount int, eventLevel string) float64 {
	confidence := base
	if match.Confidence == 0 {
		// truly nothing found
		confidence = capAtOne(confidence + 0.05)
	} else {
		confidence *= 1 - match.Confidence*0.5
	}
	if hasOrganizerInfo {
		confidence = capAtOne(confidence + 0.03)
	}
	if raceCount > 1 {
		confidence = capAtOne(confidence + 0.02)
	}
	if eventLevel == EventLevelRegional || eventLevel == EventLevelNational {
		confidence = capAtOne(confidence + 0.01)
	}
	return round2(confidence)
}

func capAtOne(v float64) float64 {
	return math.Min(1, v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
