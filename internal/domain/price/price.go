// Package price computes the affinity between a bounty's price point
// and a user's viewing habits.
package price

import "github.com/bountyhub/recommender/internal/domain/model"

// Affinity thresholds. A bounty priced within 2x either direction of
// the user's habitual price is a full match; outside that band the
// score falls off linearly with a floor.
const (
	sweetSpotLow   = 0.5
	sweetSpotHigh  = 2.0
	lowRatioFloor  = 0.1
	highRatioFloor = 0.2

	coldStartMatched   = 0.8
	coldStartUnmatched = 0.5

	tierMatchBonus = 0.1
	tierGapPenalty = 0.1
)

// Affinity returns a 0-1 fit between a bounty's price/tier and the
// user's trailing average viewed price and access tier.
//
// With no viewing history (avgPriceViewed <= 0) a cold-start heuristic
// favors tier-matched content. Otherwise the price ratio is scored
// against the sweet spot and adjusted by a small tier bonus; the tier
// filter upstream guarantees the bounty tier never exceeds the user's.
func Affinity(bountyPrice float64, bountyTier model.AccessTier, avgPriceViewed float64, userTier model.AccessTier) float64 {
	if avgPriceViewed <= 0 {
		if bountyTier == userTier {
			return coldStartMatched
		}
		return coldStartUnmatched
	}

	ratio := bountyPrice / avgPriceViewed
	var history float64
	switch {
	case ratio >= sweetSpotLow && ratio <= sweetSpotHigh:
		history = 1.0
	case ratio < sweetSpotLow:
		history = ratio * 2
		if history < lowRatioFloor {
			history = lowRatioFloor
		}
	default:
		history = sweetSpotHigh / ratio
		if history < highRatioFloor {
			history = highRatioFloor
		}
	}

	var bonus float64
	switch userTier.Level() - bountyTier.Level() {
	case 0:
		bonus = tierMatchBonus
	case 1:
		bonus = 0
	default:
		bonus = -tierGapPenalty
	}

	affinity := history + bonus
	if affinity > 1 {
		affinity = 1
	}
	if affinity < 0 {
		affinity = 0
	}
	return affinity
}
