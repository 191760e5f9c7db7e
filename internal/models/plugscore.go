package models

import "math"

const (
	plugScoreMin = 1
	plugScoreMax = 10

	// Chargers without community ratings score as a neutral 5.
	defaultRatingScore = 5
)

// PlugScore computes the derived 1-10 quality score for a station from its
// current charger state: mean rating weighted 0.4, max power scaled by 1/50,
// charger count scaled by 0.5, rounded and clamped. It is a view, never
// persisted.
func (s Station) PlugScore() int {
	return PlugScore(s.Chargers)
}

// PlugScore scores a charger set. An empty set scores the minimum.
func PlugScore(chargers []Charger) int {
	if len(chargers) == 0 {
		return plugScoreMin
	}

	var ratingSum, maxPower float64
	for _, c := range chargers {
		rating := c.RatingScore
		if rating <= 0 || math.IsNaN(rating) {
			rating = defaultRatingScore
		}
		ratingSum += rating
		if p := c.PowerKW(); p > maxPower {
			maxPower = p
		}
	}
	avgRating := ratingSum / float64(len(chargers))

	score := int(math.Round(avgRating*0.4 + maxPower/50 + float64(len(chargers))*0.5))
	if score > plugScoreMax {
		return plugScoreMax
	}
	if score < plugScoreMin {
		return plugScoreMin
	}
	return score
}
